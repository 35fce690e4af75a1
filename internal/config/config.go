package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-triage/")
	v.AddConfigPath("$HOME/.email-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Scoring weights must sum to 1.0
	v.SetDefault("scoring.weights.domain_validation", 0.30)
	v.SetDefault("scoring.weights.content_analysis", 0.35)
	v.SetDefault("scoring.weights.sender_check", 0.25)
	v.SetDefault("scoring.weights.rules_evaluation", 0.10)

	// Decision thresholds
	v.SetDefault("thresholds.auto_release_min", 0.85)
	v.SetDefault("thresholds.approval_min", 0.60)
	v.SetDefault("thresholds.escalate_max", 0.60)
	v.SetDefault("thresholds.hold_extension_default", 7)
	v.SetDefault("thresholds.hold_extension_high_risk", 30)

	// Approval lifecycle
	v.SetDefault("approval.ttl", "72h")
	v.SetDefault("approval.sweep_frequency", "15m")
	v.SetDefault("approval.default_approver", "")

	// Engine defaults
	v.SetDefault("engine.snapshot_refresh", "5m")
	v.SetDefault("engine.volume_window", "24h")

	// Store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "/data/email-triage.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/email_triage")

	// Notifier defaults
	v.SetDefault("notifier.type", "log")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from_address", "")
	v.SetDefault("smtp.from_name", "Email Triage")
	v.SetDefault("smtp.use_tls", false)
	v.SetDefault("smtp.approval_recipients", []string{})
	v.SetDefault("smtp.escalation_recipients", []string{})

	// Ticketing defaults
	v.SetDefault("ticket.type", "log")
	v.SetDefault("ticket.base_url", "")
	v.SetDefault("ticket.api_key", "")
	v.SetDefault("ticket.on_hold_status", "On Hold")
	v.SetDefault("ticket.released_status", "Open")
	v.SetDefault("ticket.timeout", "30s")

	// Static signal scores, used when no real producers are wired in
	v.SetDefault("signals.static.domain_validation", 0.5)
	v.SetDefault("signals.static.content_analysis", 0.5)
	v.SetDefault("signals.static.sender_check", 0.5)
	v.SetDefault("signals.static.rules_evaluation", 0.5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
