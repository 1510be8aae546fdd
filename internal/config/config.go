// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
	_ "time/tzdata" // FORMAT_TIME_ZONE must resolve on hosts without zoneinfo
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Datasets DatasetsConfig
	Session  SessionConfig
	Format   FormatConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// Compression is the response gzip level: none, fastest, default, best (default: default)
	Compression string `env:"SERVER_COMPRESSION" default:"default"`

	// CompressMinSize is the smallest response body that gets compressed (default: 1024)
	CompressMinSize int `env:"SERVER_COMPRESS_MIN_SIZE" default:"1024"`
}

// SourceConfig holds the record source connection settings.
type SourceConfig struct {
	// Driver selects the source: postgres, sqlite or mysql (default: postgres)
	Driver string `env:"SOURCE_DRIVER" default:"postgres"`

	// URL is the connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// FetchTimeout bounds a single dataset query (default: 30s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`
}

// DatasetsConfig holds dataset definition settings.
type DatasetsConfig struct {
	// Path is the YAML file with dataset definitions (default: datasets.yaml)
	Path string `env:"DATASETS_PATH" default:"datasets.yaml"`

	// Watch reloads the definitions when the file changes (default: false)
	Watch bool `env:"DATASETS_WATCH" default:"false"`

	// WatchDebounce collapses bursts of file events into one reload (default: 250ms)
	WatchDebounce time.Duration `env:"DATASETS_WATCH_DEBOUNCE" default:"250ms"`
}

// SessionConfig holds table instance lifecycle settings.
type SessionConfig struct {
	// TTL is how long an idle table instance is kept (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// SweepInterval is how often idle instances are dropped (default: 1m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`

	// MaxInstances caps live instances; the least recently used is evicted (default: 1000)
	MaxInstances int `env:"SESSION_MAX_INSTANCES" default:"1000"`
}

// FormatConfig holds display formatting settings.
type FormatConfig struct {
	// Locale is the BCP 47 locale for numbers and currency (default: en-US)
	Locale string `env:"FORMAT_LOCALE" default:"en-US"`

	// Currency is the ISO 4217 currency code (default: USD)
	Currency string `env:"FORMAT_CURRENCY" default:"USD"`

	// DateLayout is the Go time layout for date columns (default: 2006-01-02)
	DateLayout string `env:"FORMAT_DATE_LAYOUT" default:"2006-01-02"`

	// TimeZone is the IANA zone used for export filename dates (default: UTC)
	TimeZone string `env:"FORMAT_TIME_ZONE" default:"UTC"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ExportLimit is requests per minute for export endpoints (default: 20)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location returns the export time zone, falling back to UTC.
func (c *FormatConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
