package config

import (
	"flag"
	"io"

	"github.com/mdrscore/client/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string     bind address (e.g. ":3000")
//	-s string     JWT HMAC secret key
//	-t duration   token lifetime
//	-u string     public base url
//	-verify       require email verification for new accounts
//	-store string avatar store: memory | s3
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 endpoint (e.g. "http://127.0.0.1:9000/")
//	-l string     log format: text | json
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, "-a", "-s", "-t", "-u", "-verify", "-store", "-b", "-g", "-e", "-l")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.DurationVar(&cfg.TokenTTL, "t", cfg.TokenTTL, "token lifetime")
	fs.StringVar(&cfg.PublicURL, "u", cfg.PublicURL, "public base url")
	fs.BoolVar(&cfg.RequireVerify, "verify", cfg.RequireVerify, "require email verification")
	fs.StringVar(&cfg.AvatarStore, "store", cfg.AvatarStore, "avatar store (memory|s3)")
	fs.StringVar(&cfg.S3.Bucket, "b", cfg.S3.Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3.Region, "g", cfg.S3.Region, "S3 region")
	fs.StringVar(&cfg.S3.Endpoint, "e", cfg.S3.Endpoint, "S3 endpoint")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format (text|json)")

	return fs.Parse(args)
}
