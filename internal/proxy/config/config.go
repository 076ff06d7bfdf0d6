// Package config handles configuration for the proxy service: defaults,
// then an optional JSON file, then environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

// Config holds runtime settings for the proxy.
//
// Fields:
//   - Addr: bind address of the forwarding endpoint.
//   - AdminAddr: bind address of /metrics and /healthz. Empty disables it.
//   - GitHubBaseURL: upstream API base URL.
//   - GitHubToken: the access token. Never logged.
//   - UserAgent: sent upstream on every call.
//   - AllowedPrefixes: endpoint prefixes the proxy will forward.
//   - RequestTimeout: upstream call timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Addr            string
	AdminAddr       string
	GitHubBaseURL   string
	GitHubToken     string
	UserAgent       string
	AllowedPrefixes []string
	RequestTimeout  time.Duration
	LogLevel        string
}

func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.AdminAddr = ":9090"
	c.GitHubBaseURL = transport.DefaultBaseURL
	c.UserAgent = common.DefaultUserAgent
	c.AllowedPrefixes = []string{"repos/"}
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file named by -c,
// environment and flags, in that order. args excludes the program name.
// Malformed files or flags panic.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, lookupEnv)
	parseFlags(cfg, args)
	return cfg
}

// Validate reports settings the proxy cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.GitHubToken == "" {
		errs = append(errs, errors.New("github token is required (GITHUB_TOKEN)"))
	}
	if !strings.HasPrefix(c.GitHubBaseURL, "https://") && !strings.HasPrefix(c.GitHubBaseURL, "http://") {
		errs = append(errs, fmt.Errorf("invalid github base url %q", c.GitHubBaseURL))
	}
	if len(c.AllowedPrefixes) == 0 {
		errs = append(errs, errors.New("at least one allowed prefix is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
