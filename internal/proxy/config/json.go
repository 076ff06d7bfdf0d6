package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bonuskeeper/internal/flagx"
	"github.com/dmitrijs2005/bonuskeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Zero fields keep the value
// they already have.
type JsonConfig struct {
	Addr            string         `json:"addr"`
	AdminAddr       string         `json:"admin_addr"`
	GitHubBaseURL   string         `json:"github_base_url"`
	GitHubToken     string         `json:"github_token"`
	UserAgent       string         `json:"user_agent"`
	AllowedPrefixes []string       `json:"allowed_prefixes"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	LogLevel        string         `json:"log_level"`
}

func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Addr, c.Addr)
	setString(&config.AdminAddr, c.AdminAddr)
	setString(&config.GitHubBaseURL, c.GitHubBaseURL)
	setString(&config.GitHubToken, c.GitHubToken)
	setString(&config.UserAgent, c.UserAgent)
	setString(&config.LogLevel, c.LogLevel)
	if len(c.AllowedPrefixes) > 0 {
		config.AllowedPrefixes = c.AllowedPrefixes
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
