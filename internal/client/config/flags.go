package config

import (
	"flag"

	"github.com/dmitrijs2005/bonuskeeper/internal/flagx"
)

// parseFlags populates Config from command-line flags.
//
// Supported flags:
//
//	-b string     backend: proxy, github, s3 or memory
//	-x string     proxy URL
//	-o string     repository owner
//	-r string     repository name
//	-f string     data file path
//	-k string     encryption passphrase
//	-e string     codec: aes-cbc or xchacha20poly1305
//	-t duration   request timeout
//	-n int        write retries
//	-s string     session file, "" disables
//	-l string     log level
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-b", "-x", "-o", "-r", "-f", "-k", "-e", "-t", "-n", "-s", "-l"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&config.Backend, "b", config.Backend, "storage backend")
	fs.StringVar(&config.ProxyURL, "x", config.ProxyURL, "proxy URL")
	fs.StringVar(&config.Owner, "o", config.Owner, "repository owner")
	fs.StringVar(&config.Repo, "r", config.Repo, "repository name")
	fs.StringVar(&config.DataFile, "f", config.DataFile, "data file path")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "encryption passphrase")
	fs.StringVar(&config.Codec, "e", config.Codec, "document codec")
	fs.DurationVar(&config.RequestTimeout, "t", config.RequestTimeout, "request timeout")
	fs.IntVar(&config.MaxRetries, "n", config.MaxRetries, "write retries")
	fs.StringVar(&config.SessionFile, "s", config.SessionFile, "session file")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
