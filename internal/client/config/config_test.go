package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, BackendProxy, c.Backend)
	assert.Equal(t, "bonus_data.json", c.DataFile)
	assert.Equal(t, "aes-cbc", c.Codec)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 5, c.MaxRetries)
	assert.Empty(t, c.GitHubToken)
}

func TestLoadConfig_JsonThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"backend": "github",
		"github_token": "tok",
		"owner": "octo",
		"repo": "data",
		"encryption_key": "pepper",
		"request_timeout": "2s",
		"max_retries": 0
	}`), 0o600))

	c := LoadConfig([]string{"-config=" + path, "-r", "other", "-t", "4s", "register"})

	assert.Equal(t, BackendGitHub, c.Backend)
	assert.Equal(t, "tok", c.GitHubToken)
	assert.Equal(t, "octo", c.Owner)
	assert.Equal(t, "other", c.Repo)
	assert.Equal(t, "pepper", c.EncryptionKey)
	assert.Equal(t, 4*time.Second, c.RequestTimeout)
	assert.Zero(t, c.MaxRetries)
	assert.Equal(t, "bonus_data.json", c.DataFile)
	require.NoError(t, c.Validate())
}

func TestParseFlags_BadValuePanics(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseFlags(&c, []string{"-n", "many"}) })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"memory ok", func(c *Config) { c.Backend = BackendMemory }, ""},
		{"missing key", func(c *Config) { c.Backend = BackendMemory; c.EncryptionKey = "" }, "encryption key"},
		{"proxy needs repo", func(c *Config) { c.Owner = "" }, "owner"},
		{"proxy refuses token", func(c *Config) { c.GitHubToken = "tok" }, "must not be set"},
		{"github needs token", func(c *Config) { c.Backend = BackendGitHub }, "github token is required"},
		{"s3 needs bucket", func(c *Config) { c.Backend = BackendS3; c.S3Bucket = "" }, "bucket"},
		{"unknown backend", func(c *Config) { c.Backend = "ftp" }, "unknown backend"},
		{"unknown codec", func(c *Config) { c.Codec = "rot13" }, "unknown codec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			c.Owner, c.Repo, c.EncryptionKey = "o", "r", "k"
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
