package config

import "os"

var lookupEnv = os.LookupEnv

// parseEnv applies GITHUB_TOKEN and PROXY_ADDR.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("GITHUB_TOKEN"); ok && v != "" {
		config.GitHubToken = v
	}
	if v, ok := lookup("PROXY_ADDR"); ok && v != "" {
		config.Addr = v
	}
}
