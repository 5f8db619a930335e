package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Provider holds the OAuth2/OIDC settings used by the provider transport.
type Provider struct {
	Issuer       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Config holds runtime settings for the MDRScore client.
//
// Units: RequestTimeout and NotificationTTL are time.Duration values; a zero
// RequestTimeout leaves transport defaults in place.
type Config struct {
	APIBaseURL string
	// Transport is "token" or "provider".
	Transport string
	// TokenStore is "sqlite" or "redis".
	TokenStore string

	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	RequestTimeout  time.Duration
	NotificationTTL time.Duration
	LogFormat       string
	Verbose         bool

	Provider Provider
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:3000"
	c.Transport = "token"
	c.TokenStore = "sqlite"
	c.DBPath = defaultDBPath()
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "mdrscore:"
	c.NotificationTTL = 4 * time.Second
	c.LogFormat = "text"
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "mdrscore", "client.db")
}

// Validate reports the first setting the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url %q: must be an http(s) url", c.APIBaseURL)
	}

	switch c.Transport {
	case "token":
	case "provider":
		if c.Provider.ClientID == "" {
			return errors.New("provider.client_id is required for the provider transport")
		}
		if c.Provider.Issuer == "" && c.Provider.TokenURL == "" {
			return errors.New("provider.issuer or provider.token_url is required for the provider transport")
		}
	default:
		return fmt.Errorf("transport %q: must be token or provider", c.Transport)
	}

	switch c.TokenStore {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite token store")
		}
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis token store")
		}
	default:
		return fmt.Errorf("token_store %q: must be sqlite or redis", c.TokenStore)
	}

	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification_ttl %s: must be positive", c.NotificationTTL)
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file named by -c/-config (if
// any), then command-line flags. Later sources take precedence.
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
