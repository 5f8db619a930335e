// Package config handles configuration for the reference backend,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	AvatarStoreMemory = "memory"
	AvatarStoreS3     = "s3"
)

// S3 holds object storage settings for the s3 avatar store. Endpoint may
// point at any S3-compatible service (MinIO in development).
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Config holds runtime settings for the reference backend.
//
// Fields:
//   - Addr: HTTP bind address.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default outside development.
//   - TokenTTL: lifetime of issued tokens.
//   - RequireVerify: new accounts must open the verification link before logging in.
//   - PublicURL: externally visible base url, used to build avatar and verification links.
//   - AvatarStore: "memory" or "s3".
type Config struct {
	Addr          string
	SecretKey     string
	TokenTTL      time.Duration
	RequireVerify bool
	PublicURL     string
	AvatarStore   string
	S3            S3
	LogFormat     string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":3000"
	c.SecretKey = "secretKey"
	c.TokenTTL = 24 * time.Hour
	c.RequireVerify = false
	c.PublicURL = "http://localhost:3000"
	c.AvatarStore = AvatarStoreMemory
	c.S3 = S3{
		Bucket:    "avatars",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000/",
		AccessKey: "admin",
		SecretKey: "secretpassword",
	}
	c.LogFormat = "json"
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl %s: must be positive", c.TokenTTL)
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Host == "" {
		return fmt.Errorf("public_url %q: must be an absolute url", c.PublicURL)
	}
	switch c.AvatarStore {
	case AvatarStoreMemory:
	case AvatarStoreS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 avatar store")
		}
	default:
		return fmt.Errorf("avatar_store %q: must be memory or s3", c.AvatarStore)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
