// Package cache holds the read-through cache for the sport catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// Cache keys.
const (
	KeyAllSports    = "sports:all"
	KeyActiveSports = "sports:active"
)

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = 5 * time.Minute

// SportCache stores the sport catalog keyed by the active filter.
type SportCache interface {
	// GetSports reports ok=false on a miss.
	GetSports(ctx context.Context, activeOnly bool) (sports []model.Sport, ok bool, err error)
	SetSports(ctx context.Context, activeOnly bool, sports []model.Sport) error
}

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis is a SportCache backed by Redis string values holding JSON.
type Redis struct {
	client Client
	ttl    time.Duration
}

var _ SportCache = (*Redis)(nil)

// NewRedis wraps client.
func NewRedis(client Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Key returns the cache key for the filter.
func Key(activeOnly bool) string {
	if activeOnly {
		return KeyActiveSports
	}
	return KeyAllSports
}

// GetSports implements SportCache.
func (r *Redis) GetSports(ctx context.Context, activeOnly bool) ([]model.Sport, bool, error) {
	data, err := r.client.Get(ctx, Key(activeOnly)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get sports: %w", err)
	}
	var sports []model.Sport
	if err := json.Unmarshal(data, &sports); err != nil {
		return nil, false, fmt.Errorf("unmarshaling sports: %w", err)
	}
	return sports, true, nil
}

// SetSports implements SportCache.
func (r *Redis) SetSports(ctx context.Context, activeOnly bool, sports []model.Sport) error {
	data, err := json.Marshal(sports)
	if err != nil {
		return fmt.Errorf("marshaling sports: %w", err)
	}
	return r.client.Set(ctx, Key(activeOnly), data, r.ttl).Err()
}

// Nop never stores anything. Used when no Redis URL is configured.
type Nop struct{}

var _ SportCache = Nop{}

// GetSports always misses.
func (Nop) GetSports(context.Context, bool) ([]model.Sport, bool, error) { return nil, false, nil }

// SetSports discards the value.
func (Nop) SetSports(context.Context, bool, []model.Sport) error { return nil }
