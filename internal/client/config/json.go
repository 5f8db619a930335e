package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mdrscore/client/internal/flagx"
	"github.com/mdrscore/client/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "zero" so a file only overrides what it
// names.
type JSONConfig struct {
	APIBaseURL      *string         `json:"api_base_url"`
	Transport       *string         `json:"transport"`
	TokenStore      *string         `json:"token_store"`
	DBPath          *string         `json:"db_path"`
	RedisAddr       *string         `json:"redis_addr"`
	RedisPassword   *string         `json:"redis_password"`
	RedisDB         *int            `json:"redis_db"`
	RedisPrefix     *string         `json:"redis_prefix"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	NotificationTTL *timex.Duration `json:"notification_ttl"`
	LogFormat       *string         `json:"log_format"`
	Provider        *JSONProvider   `json:"provider"`
}

type JSONProvider struct {
	Issuer       string   `json:"issuer"`
	TokenURL     string   `json:"token_url"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays cfg with the file given via -c or -config. Without
// either flag it does nothing.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&cfg.APIBaseURL, jc.APIBaseURL)
	set(&cfg.Transport, jc.Transport)
	set(&cfg.TokenStore, jc.TokenStore)
	set(&cfg.DBPath, jc.DBPath)
	set(&cfg.RedisAddr, jc.RedisAddr)
	set(&cfg.RedisPassword, jc.RedisPassword)
	set(&cfg.RedisDB, jc.RedisDB)
	set(&cfg.RedisPrefix, jc.RedisPrefix)
	set(&cfg.LogFormat, jc.LogFormat)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.NotificationTTL != nil {
		cfg.NotificationTTL = jc.NotificationTTL.Duration
	}
	if p := jc.Provider; p != nil {
		cfg.Provider = Provider{
			Issuer:       p.Issuer,
			TokenURL:     p.TokenURL,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			Scopes:       p.Scopes,
		}
	}
	return nil
}
