// Package config provides configuration management for zonelens.
package config

import "time"

// Config holds all configuration for zonelens.
type Config struct {
	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is the logging format (json, text)
	LogFormat string `mapstructure:"log_format"`

	// Cloudflare configuration
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`

	// Sync configuration
	Sync SyncConfig `mapstructure:"sync"`

	// Db configuration (SQLite cache)
	Db DbConfig `mapstructure:"db"`

	// Api configuration (HTTP API server)
	Api ApiConfig `mapstructure:"api"`
}

// CloudflareConfig holds Cloudflare API configuration.
type CloudflareConfig struct {
	// APIToken is the Cloudflare API token. Optional: a token can also be
	// supplied per sync request, in which case the request token wins.
	APIToken string `mapstructure:"api_token"`
}

// SyncConfig holds synchronization configuration.
type SyncConfig struct {
	// Interval is the interval for periodic resync (0 = manual sync only)
	Interval time.Duration `mapstructure:"interval"`

	// OnStart triggers a sync at startup when a token is configured
	OnStart bool `mapstructure:"on_start"`
}

// DbConfig holds database configuration.
type DbConfig struct {
	// Path is the path to the SQLite database
	Path string `mapstructure:"path"`
}

// ApiConfig holds HTTP API server configuration.
type ApiConfig struct {
	// Address is the listen address
	Address string `mapstructure:"address"`

	// BasePath is the API base path
	BasePath string `mapstructure:"base_path"`

	// Token is the optional Bearer token for API authentication.
	// If empty, no authentication is required.
	Token string `mapstructure:"token"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Sync: SyncConfig{
			Interval: 0,
			OnStart:  true,
		},
		Db: DbConfig{
			Path: "./zonelens.db",
		},
		Api: ApiConfig{
			Address:  ":8080",
			BasePath: "/api",
		},
	}
}
