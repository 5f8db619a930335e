package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mdrscore/client/internal/flagx"
	"github.com/mdrscore/client/internal/timex"
)

// JSONConfig is the file form of Config. Durations accept "24h" or integer
// nanoseconds. Absent fields keep their current value.
type JSONConfig struct {
	Addr          *string         `json:"addr"`
	SecretKey     *string         `json:"secret_key"`
	TokenTTL      *timex.Duration `json:"token_ttl"`
	RequireVerify *bool           `json:"require_verify"`
	PublicURL     *string         `json:"public_url"`
	AvatarStore   *string         `json:"avatar_store"`
	S3            *JSONS3         `json:"s3"`
	LogFormat     *string         `json:"log_format"`
}

type JSONS3 struct {
	Bucket    *string `json:"bucket"`
	Region    *string `json:"region"`
	Endpoint  *string `json:"endpoint"`
	AccessKey *string `json:"access_key"`
	SecretKey *string `json:"secret_key"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays cfg with the file given via -c or -config.
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

	set(&cfg.Addr, jc.Addr)
	set(&cfg.SecretKey, jc.SecretKey)
	set(&cfg.RequireVerify, jc.RequireVerify)
	set(&cfg.PublicURL, jc.PublicURL)
	set(&cfg.AvatarStore, jc.AvatarStore)
	set(&cfg.LogFormat, jc.LogFormat)
	if jc.TokenTTL != nil {
		cfg.TokenTTL = jc.TokenTTL.Duration
	}
	if s := jc.S3; s != nil {
		set(&cfg.S3.Bucket, s.Bucket)
		set(&cfg.S3.Region, s.Region)
		set(&cfg.S3.Endpoint, s.Endpoint)
		set(&cfg.S3.AccessKey, s.AccessKey)
		set(&cfg.S3.SecretKey, s.SecretKey)
	}
	return nil
}
