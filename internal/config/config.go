package config

import (
	"time"
)

// Config is the complete application configuration. Values are layered:
// built-in defaults, then the user config file, then PHARMAINTEL_* env
// variables and runtime overrides.
type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Metrics MetricsConfig           `mapstructure:"metrics"`
	Health  HealthConfig            `mapstructure:"health"`
	Debug   DebugConfig             `mapstructure:"debug"`
	Search  SearchConfig            `mapstructure:"search"`
	Sources map[string]SourceConfig `mapstructure:"sources"`

	RateLimitMargin float64 `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SearchConfig bounds combined-search requests.
type SearchConfig struct {
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	MaxQueryLength int           `mapstructure:"max_query_length"`
	BackoffUnit    time.Duration `mapstructure:"backoff_unit"`
	UserAgent      string        `mapstructure:"user_agent"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

// SourceConfig overrides one built-in source. Zero values keep the
// built-in setting.
type SourceConfig struct {
	// Enabled defaults to true when omitted.
	Enabled       *bool         `mapstructure:"enabled"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retries       int           `mapstructure:"retries"`
	BaseURL       string        `mapstructure:"base_url"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: simple, structured
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port. Metrics are also
	// proxied on the main HTTP port at /metrics.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug configuration
type DebugConfig struct {
	// Enabled exposes internal error detail and panic stacks in 500
	// responses. Development only.
	Enabled bool `mapstructure:"enabled"`
}
