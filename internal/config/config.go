// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/synthedata/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Generation GenerationConfig
	Jobs       JobsConfig
	Catalog    CatalogConfig
	Output     OutputConfig
	Database   DatabaseConfig
	Rate       RateLimitConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 120s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for synchronous requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// GenerationConfig holds engine defaults.
type GenerationConfig struct {
	// Seed is used when a request carries none (default: 42)
	Seed int64 `env:"SYNTHE_SEED" default:"42"`

	// HistoryWindowDays bounds date/datetime fields (default: 365)
	HistoryWindowDays int `env:"SYNTHE_HISTORY_WINDOW_DAYS" default:"365"`

	// MaxVersionsPerKey caps SCD2 versions of one natural key (default: 5)
	MaxVersionsPerKey int `env:"SYNTHE_SCD2_MAX_VERSIONS" default:"5"`

	// MinVersionStep and MaxVersionStep bound the gap between SCD2 versions
	MinVersionStep time.Duration `env:"SYNTHE_SCD2_MIN_STEP" default:"1h"`
	MaxVersionStep time.Duration `env:"SYNTHE_SCD2_MAX_STEP" default:"720h"`

	// OutOfRangeFactors are the multipliers of the out-of-range pass
	OutOfRangeFactors []string `env:"SYNTHE_OUT_OF_RANGE_FACTORS" default:"10,100,-1,-10"`

	// CreatedBy is written to created_by / updated_by (default: synthedata)
	CreatedBy string `env:"SYNTHE_CREATED_BY" default:"synthedata"`

	// DefaultGeo is applied when a request names no geographic context
	DefaultGeo string `env:"SYNTHE_DEFAULT_GEO"`

	// MaxRows caps a single table request (default: 1000000)
	MaxRows int `env:"SYNTHE_MAX_ROWS" default:"1000000"`

	// PIISalt salts masked PII values
	PIISalt string `env:"SYNTHE_PII_SALT" default:"default_salt"`

	// AsOf pins the generation clock (RFC 3339 or YYYY-MM-DD); empty uses
	// the wall clock
	AsOf string `env:"SYNTHE_AS_OF"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	// MaxConcurrent is the maximum number of parallel jobs (default: 4)
	MaxConcurrent int `env:"SYNTHE_MAX_CONCURRENT_JOBS" default:"4"`

	// MaxWaitTime is how long a submission waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"SYNTHE_JOB_MAX_WAIT" default:"10s"`

	// Retention is how long finished jobs keep their results; 0 keeps them
	// until deleted (default: 1h)
	Retention time.Duration `env:"SYNTHE_JOB_RETENTION" default:"1h"`
}

// CatalogConfig locates user table definitions.
type CatalogConfig struct {
	// Dir holds one <domain>.yml per domain; empty means built-ins only
	Dir string `env:"SYNTHE_CATALOG_DIR"`
}

// OutputConfig holds writer settings.
type OutputConfig struct {
	// Dir is the root of the out/<table>/ layout (default: out)
	Dir string `env:"SYNTHE_OUTPUT_DIR" default:"out"`

	// Formats written by background jobs (default: csv)
	Formats []string `env:"SYNTHE_OUTPUT_FORMATS" default:"csv"`

	// Parallelism bounds concurrent table writes (default: 4)
	Parallelism int `env:"SYNTHE_WRITE_PARALLELISM" default:"4"`
}

// DatabaseConfig holds the optional PostgreSQL sink settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables the sink
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Schema is the target schema for written tables (default: public)
	Schema string `env:"DB_SCHEMA" default:"public"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database URL is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// GenerateLimit is requests per minute for generation endpoints (default: 20)
	GenerateLimit int `env:"RATE_LIMIT_GENERATE" default:"20"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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

// Factors parses OutOfRangeFactors. Validate has already rejected bad entries.
func (c *GenerationConfig) Factors() []float64 {
	out := make([]float64, 0, len(c.OutOfRangeFactors))
	for _, s := range c.OutOfRangeFactors {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// ParseAsOf parses an RFC 3339 timestamp or a YYYY-MM-DD date (midnight
// UTC).
func ParseAsOf(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("as-of %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// Clock returns a fixed clock when AsOf is set, nil otherwise.
// Validate has already rejected a malformed AsOf.
func (c *GenerationConfig) Clock() func() time.Time {
	if c.AsOf == "" {
		return nil
	}
	t, err := ParseAsOf(c.AsOf)
	if err != nil {
		return nil
	}
	return func() time.Time { return t }
}

// EngineOptions maps the generation settings onto engine options.
func (c *Config) EngineOptions() core.Options {
	g := c.Generation
	return core.Options{
		DefaultSeed:       uint64(g.Seed),
		WindowDays:        g.HistoryWindowDays,
		MaxVersionsPerKey: g.MaxVersionsPerKey,
		MinStep:           g.MinVersionStep,
		MaxStep:           g.MaxVersionStep,
		OutOfRangeFactors: g.Factors(),
		Actor:             g.CreatedBy,
		MaxRows:           g.MaxRows,
		PIISalt:           g.PIISalt,
	}
}
