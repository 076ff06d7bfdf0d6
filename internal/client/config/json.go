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
	Backend        string         `json:"backend"`
	ProxyURL       string         `json:"proxy_url"`
	GitHubBaseURL  string         `json:"github_base_url"`
	GitHubToken    string         `json:"github_token"`
	Owner          string         `json:"owner"`
	Repo           string         `json:"repo"`
	Branch         string         `json:"branch"`
	DataFile       string         `json:"data_file"`
	EncryptionKey  string         `json:"encryption_key"`
	Codec          string         `json:"codec"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	MaxRetries     *int           `json:"max_retries"`
	S3User         string         `json:"s3_user"`
	S3Password     string         `json:"s3_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	SessionFile    string         `json:"session_file"`
	LogLevel       string         `json:"log_level"`
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

	for dst, v := range map[*string]string{
		&config.Backend:        c.Backend,
		&config.ProxyURL:       c.ProxyURL,
		&config.GitHubBaseURL:  c.GitHubBaseURL,
		&config.GitHubToken:    c.GitHubToken,
		&config.Owner:          c.Owner,
		&config.Repo:           c.Repo,
		&config.Branch:         c.Branch,
		&config.DataFile:       c.DataFile,
		&config.EncryptionKey:  c.EncryptionKey,
		&config.Codec:          c.Codec,
		&config.S3User:         c.S3User,
		&config.S3Password:     c.S3Password,
		&config.S3Bucket:       c.S3Bucket,
		&config.S3Region:       c.S3Region,
		&config.S3BaseEndpoint: c.S3BaseEndpoint,
		&config.SessionFile:    c.SessionFile,
		&config.LogLevel:       c.LogLevel,
	} {
		if v != "" {
			*dst = v
		}
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.MaxRetries != nil {
		config.MaxRetries = *c.MaxRetries
	}
}
