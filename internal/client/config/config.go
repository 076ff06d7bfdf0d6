package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bonuskeeper/internal/cryptox"
	"github.com/dmitrijs2005/bonuskeeper/internal/docstore"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

const (
	BackendProxy  = "proxy"
	BackendGitHub = "github"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

type Config struct {
	Backend        string
	ProxyURL       string
	GitHubBaseURL  string
	GitHubToken    string
	Owner          string
	Repo           string
	Branch         string
	DataFile       string
	EncryptionKey  string
	Codec          string
	RequestTimeout time.Duration
	MaxRetries     int
	S3User         string
	S3Password     string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	SessionFile    string
	LogLevel       string
}

func (c *Config) LoadDefaults() {
	c.Backend = BackendProxy
	c.ProxyURL = "http://127.0.0.1:8080/"
	c.GitHubBaseURL = transport.DefaultBaseURL
	c.DataFile = docstore.DefaultPath
	c.Codec = cryptox.CodecAESCBC
	c.RequestTimeout = 10 * time.Second
	c.MaxRetries = docstore.DefaultMaxRetries
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3Bucket = "bonuskeeper"
	c.SessionFile = ".bonuskeeper_session.json"
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from defaults, the JSON file named by -c and
// flags. args excludes the program name. Malformed files or flags panic.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

// Validate checks the settings the selected backend needs.
func (c *Config) Validate() error {
	var errs []error
	if c.EncryptionKey == "" {
		errs = append(errs, errors.New("encryption key is required"))
	}
	if c.DataFile == "" {
		errs = append(errs, errors.New("data file is required"))
	}
	if c.Codec != cryptox.CodecAESCBC && c.Codec != cryptox.CodecXChaCha {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.Backend {
	case BackendProxy:
		if c.ProxyURL == "" {
			errs = append(errs, errors.New("proxy url is required"))
		}
		if c.GitHubToken != "" {
			errs = append(errs, errors.New("github token must not be set with the proxy backend"))
		}
		errs = append(errs, c.requireRepo()...)
	case BackendGitHub:
		if c.GitHubToken == "" {
			errs = append(errs, errors.New("github token is required"))
		}
		errs = append(errs, c.requireRepo()...)
	case BackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 bucket is required"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	return errors.Join(errs...)
}

func (c *Config) requireRepo() []error {
	var errs []error
	if c.Owner == "" {
		errs = append(errs, errors.New("owner is required"))
	}
	if c.Repo == "" {
		errs = append(errs, errors.New("repo is required"))
	}
	return errs
}
