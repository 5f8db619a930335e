// Package config loads runtime configuration for the MDRScore client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so "4s" and integer nanoseconds both work:
//
//	{
//	  "api_base_url": "https://api.mdrscore.example",
//	  "transport": "provider",
//	  "token_store": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "request_timeout": "10s",
//	  "notification_ttl": "4s",
//	  "provider": {
//	    "issuer": "https://id.mdrscore.example/realms/mdr",
//	    "client_id": "mdr-cli"
//	  }
//	}
//
// The package does not read environment variables.
package config
