package config

import (
	"flag"
	"io"

	"github.com/mdrscore/client/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string     backend base url
//	-m string     transport: token | provider
//	-s string     token store: sqlite | redis
//	-d string     sqlite database file
//	-r string     redis address
//	-t duration   per-request timeout
//	-l string     log format: text | json
//	-v            debug logging
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, "-a", "-m", "-s", "-d", "-r", "-t", "-l", "-v")

	fs := flag.NewFlagSet("mdrscore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend base url")
	fs.StringVar(&cfg.Transport, "m", cfg.Transport, "session transport (token|provider)")
	fs.StringVar(&cfg.TokenStore, "s", cfg.TokenStore, "credential store (sqlite|redis)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "sqlite database file")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-request timeout")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format (text|json)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "debug logging")

	return fs.Parse(args)
}
