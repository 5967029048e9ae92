package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

const (
	envPrefix   = "CFS_"
	envFileVar  = "CFS_ENV_FILE"
	configVar   = "CFS_CONFIG"
	defaultEnvF = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. .env file (CFS_ENV_FILE, default ".env"); never overrides the real environment
//  3. file (YAML) if CFS_CONFIG is set
//  4. env (prefix CFS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CFS_RATE_LIMIT_RPS -> rate_limit_rps. Underscores are kept to match the
	// flat koanf tags; cors_origins is split on commas.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		switch key {
		case "config", "env_file":
			return "", nil
		case "cors_origins":
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(envFileVar)
	if path == "" {
		path = defaultEnvF
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0:
		return fmt.Errorf("%w: db pool sizes must not be negative", ErrInvalidConfig)
	case c.DBConnectTimeoutMS <= 0:
		return fmt.Errorf("%w: db_connect_timeout_ms must be positive", ErrInvalidConfig)
	case c.SportsCacheTTLSeconds < 0:
		return fmt.Errorf("%w: sports_cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.AuthSecret == "":
		return fmt.Errorf("%w: auth_secret must not be empty", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0:
		return fmt.Errorf("%w: rate limit rps and burst must be positive", ErrInvalidConfig)
	}
	if c.LockSweepEnabled {
		if _, err := cron.ParseStandard(c.LockSweepSchedule); err != nil {
			return fmt.Errorf("%w: lock_sweep_schedule %q: %w", ErrInvalidConfig, c.LockSweepSchedule, err)
		}
	}
	return nil
}
