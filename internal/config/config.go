// Package config provides application configuration loading from environment
// variables and .env files. It uses viper with sensible single-box defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv        string // Application environment (dev, prod)
	HTTPAddr      string // Admin API bind address (e.g. ":8077")
	MetricsAddr   string // Metrics server bind address
	StoreType     string // Storage backend (memory, sqlite, postgres)
	DatabaseDSN   string // sqlite path or postgres connection URL
	AdminAPIKey   string // Admin bearer key, plaintext or bcrypt hash; empty mints an ephemeral key at startup
	KeyPrefix     string // Prefix for generated API keys
	PreviewLimit  int    // Default preview item cap when the caller sends none
	WebhookURL    string // Optional endpoint notified on materialization
	WebhookSecret string // HMAC secret for webhook signatures
}

const defaultAdminKey = "admin-123" // Change in production!

// Load reads configuration from environment variables and an optional .env
// file. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env") // Optional; silently ignored if the file doesn't exist
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	setDefaults(v)

	return &Config{
		AppEnv:        v.GetString("APP_ENV"),
		HTTPAddr:      v.GetString("APP_HTTP_ADDR"),
		MetricsAddr:   v.GetString("METRICS_ADDR"),
		StoreType:     v.GetString("STORE_TYPE"),
		DatabaseDSN:   v.GetString("DB_DSN"),
		AdminAPIKey:   v.GetString("ADMIN_API_KEY"),
		KeyPrefix:     v.GetString("AUTH_KEY_PREFIX"),
		PreviewLimit:  v.GetInt("PREVIEW_LIMIT"),
		WebhookURL:    v.GetString("WEBHOOK_URL"),
		WebhookSecret: v.GetString("WEBHOOK_SECRET"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8077")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("STORE_TYPE", "sqlite")
	v.SetDefault("DB_DSN", "aerial.db")
	v.SetDefault("ADMIN_API_KEY", defaultAdminKey)
	v.SetDefault("AUTH_KEY_PREFIX", "ask_")
	v.SetDefault("PREVIEW_LIMIT", 50)
}

// ValidationError represents a configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is suitable to boot with. It is
// called at startup so a misconfigured server fails fast instead of
// degrading per-request.
func (c *Config) Validate() error {
	switch c.StoreType {
	case "memory", "sqlite", "postgres":
	default:
		return ValidationError{Field: "STORE_TYPE", Message: fmt.Sprintf("must be memory, sqlite or postgres, got %q", c.StoreType)}
	}
	if c.StoreType != "memory" && strings.TrimSpace(c.DatabaseDSN) == "" {
		return ValidationError{Field: "DB_DSN", Message: "required for " + c.StoreType + " store"}
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return ValidationError{Field: "APP_HTTP_ADDR", Message: "must not be empty"}
	}
	if c.PreviewLimit < 0 {
		return ValidationError{Field: "PREVIEW_LIMIT", Message: "must not be negative"}
	}
	if c.WebhookURL != "" && strings.TrimSpace(c.WebhookSecret) == "" {
		return ValidationError{Field: "WEBHOOK_SECRET", Message: "required when WEBHOOK_URL is set"}
	}
	if c.AppEnv != "dev" && c.AdminAPIKey == defaultAdminKey {
		return ValidationError{Field: "ADMIN_API_KEY", Message: "default key is not allowed outside dev"}
	}
	return nil
}
