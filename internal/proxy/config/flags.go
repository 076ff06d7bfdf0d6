package config

import (
	"flag"

	"github.com/dmitrijs2005/bonuskeeper/internal/flagx"
)

// parseFlags populates Config from command-line flags.
//
// Supported flags:
//
//	-a string     forwarding bind address (e.g. ":8080")
//	-m string     admin bind address, "" disables
//	-g string     upstream API base URL
//	-u string     upstream User-Agent
//	-p list       comma-separated allowed endpoint prefixes
//	-t duration   upstream request timeout (e.g. "10s")
//	-l string     log level
//
// The token has no flag so it never shows up in process listings.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-g", "-u", "-p", "-t", "-l"})

	fs := flag.NewFlagSet("proxy", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to listen on")
	fs.StringVar(&config.AdminAddr, "m", config.AdminAddr, "admin address for metrics and health")
	fs.StringVar(&config.GitHubBaseURL, "g", config.GitHubBaseURL, "upstream API base URL")
	fs.StringVar(&config.UserAgent, "u", config.UserAgent, "upstream User-Agent")

	prefixes := flagx.StringList(config.AllowedPrefixes)
	fs.Var(&prefixes, "p", "allowed endpoint prefixes, comma separated")

	fs.DurationVar(&config.RequestTimeout, "t", config.RequestTimeout, "upstream request timeout")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	config.AllowedPrefixes = prefixes
}
