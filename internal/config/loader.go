package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the environment variable prefix
	EnvPrefix = "ZONELENS"

	// DefaultConfigName is the default config file name
	DefaultConfigName = "zonelens"
)

// Load loads configuration from environment variables and config file.
// Config file resolution priority: CLI flag > ENV > default search paths.
// Value priority: Environment variables > Config file > Defaults.
func Load(configPath string) (*Config, error) {
	// Best-effort .env load for local development; a missing file is fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	v := viper.New()

	// Enable environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults in viper
	setDefaults(v, cfg)

	// Resolve config file path with priority: CLI flag > ENV > default search paths
	if err := resolveConfigFile(v, configPath); err != nil {
		return nil, err
	}

	// Unmarshal configuration
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Apply environment variable overrides that viper cannot auto-resolve
	// reliably for nested secret fields.
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	// Core
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)

	// Cloudflare
	v.SetDefault("cloudflare.api_token", cfg.Cloudflare.APIToken)

	// Sync
	v.SetDefault("sync.interval", cfg.Sync.Interval)
	v.SetDefault("sync.on_start", cfg.Sync.OnStart)

	// Database
	v.SetDefault("db.path", cfg.Db.Path)

	// API server
	v.SetDefault("api.address", cfg.Api.Address)
	v.SetDefault("api.base_path", cfg.Api.BasePath)
	v.SetDefault("api.token", cfg.Api.Token)
}

// applyEnvOverrides applies environment variable overrides for secrets.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv(EnvPrefix + "_CLOUDFLARE_API_TOKEN"); token != "" {
		cfg.Cloudflare.APIToken = token
	}
	if token := os.Getenv(EnvPrefix + "_API_TOKEN"); token != "" {
		cfg.Api.Token = token
	}
}

// validate validates the configuration.
func validate(cfg *Config) error {
	// Validate log level
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.LogLevel] {
		cfg.LogLevel = "info"
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		cfg.LogFormat = "text"
	}

	if cfg.Sync.Interval < 0 {
		return &ValidationError{Field: "sync.interval", Message: "interval cannot be negative"}
	}

	if cfg.Db.Path == "" {
		return &ValidationError{Field: "db.path", Message: "database path is required"}
	}

	if cfg.Api.Address == "" {
		return &ValidationError{Field: "api.address", Message: "listen address is required"}
	}

	// No Cloudflare token requirement here: a token may instead be supplied
	// with each sync request.

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Field + ": " + e.Message
}

// resolveConfigFile resolves and loads the config file into viper.
// Priority: explicit path (CLI flag) > ZONELENS_CONFIG env > default search paths.
func resolveConfigFile(v *viper.Viper, configPath string) error {
	// 1. Explicit path from CLI flag
	if configPath != "" {
		v.SetConfigFile(configPath)
		return v.ReadInConfig()
	}

	// 2. Path from environment variable
	if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
		v.SetConfigFile(envPath)
		return v.ReadInConfig()
	}

	// 3. Default search paths: ./zonelens.yaml, /etc/zonelens/zonelens.yaml
	// Note: Do NOT call v.SetConfigType() here. When configType is set,
	// viper also matches extensionless files. Without it, viper only
	// matches files with known extensions (.yaml, .yml, .json, etc.).
	v.SetConfigName(DefaultConfigName)
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/zonelens")

	if err := v.ReadInConfig(); err != nil {
		// Not finding a config file in default paths is fine;
		// the application can run purely from env vars and defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}
