// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers an optional .env file, an optional YAML file and CFS_ env vars.
// - Errors returned by Load wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the PostgreSQL DSN. Empty means the service starts in
	// fallback mode and serves the static dataset read-only.
	DatabaseURL string `koanf:"database_url"`

	// DBMaxOpenConns and DBMaxIdleConns bound the sql.DB pool.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`
	DBMaxIdleConns int `koanf:"db_max_idle_conns"`

	// DBConnectTimeoutMS bounds the startup ping.
	DBConnectTimeoutMS int `koanf:"db_connect_timeout_ms"`

	// RedisURL enables the sport catalog cache when set, e.g. redis://localhost:6379/0.
	RedisURL string `koanf:"redis_url"`

	// SportsCacheTTLSeconds is the cache entry lifetime.
	SportsCacheTTLSeconds int `koanf:"sports_cache_ttl_seconds"`

	// AuthSecret is the HS256 signing key for bearer tokens.
	AuthSecret string `koanf:"auth_secret"`

	// AuthIssuer is checked against the iss claim when non-empty.
	AuthIssuer string `koanf:"auth_issuer"`

	// CORSOrigins lists allowed origins. Comma separated when given via env.
	CORSOrigins []string `koanf:"cors_origins"`

	// RequestTimeoutMS caps handler execution time.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RateLimitRPS and RateLimitBurst configure the per-actor write limiter.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// LockSweepEnabled turns on the cron job locking contests past lockTime.
	LockSweepEnabled bool `koanf:"lock_sweep_enabled"`

	// LockSweepSchedule is a cron spec or descriptor such as "@every 1m".
	LockSweepSchedule string `koanf:"lock_sweep_schedule"`
}

// DefaultAuthSecret is the development signing key used when none is configured.
const DefaultAuthSecret = "cfs-dev-secret"

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		DBMaxOpenConns:        10,
		DBMaxIdleConns:        5,
		DBConnectTimeoutMS:    5000,
		SportsCacheTTLSeconds: 300,
		AuthSecret:            DefaultAuthSecret,
		AuthIssuer:            "cfs-platform",
		CORSOrigins:           []string{"http://localhost:3000"},
		RequestTimeoutMS:      10_000,
		RateLimitRPS:          5,
		RateLimitBurst:        10,
		LockSweepEnabled:      true,
		LockSweepSchedule:     "@every 1m",
	}
}

// DBConnectTimeout returns DBConnectTimeoutMS as a duration.
func (c *Config) DBConnectTimeout() time.Duration {
	return time.Duration(c.DBConnectTimeoutMS) * time.Millisecond
}

// SportsCacheTTL returns SportsCacheTTLSeconds as a duration.
func (c *Config) SportsCacheTTL() time.Duration {
	return time.Duration(c.SportsCacheTTLSeconds) * time.Second
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
