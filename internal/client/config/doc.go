// Package config loads runtime configuration for the bonuskeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
//	{
//	  "backend": "proxy",
//	  "proxy_url": "http://127.0.0.1:8080/",
//	  "owner": "octo",
//	  "repo": "bonus-data",
//	  "branch": "main",
//	  "data_file": "bonus_data.json",
//	  "encryption_key": "...",
//	  "codec": "aes-cbc",
//	  "request_timeout": "10s",
//	  "max_retries": 5,
//	  "session_file": "~/.bonuskeeper/session.json",
//	  "log_level": "warn"
//	}
//
// Backends: "proxy" talks to the proxy service and holds no token; "github"
// calls the API directly with github_token; "s3" uses the s3_* settings;
// "memory" keeps everything in process.
package config
