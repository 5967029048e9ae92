// Package postgres is the primary contest store backed by PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository/postgres/migrations"
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

const driverName = "postgres"

// Store implements repository.Store on top of sqlx.
type Store struct {
	db  *sqlx.DB
	log logger.Logger
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// Option configures Open and New.
type Option func(*options)

type options struct {
	maxOpenConns   int
	maxIdleConns   int
	connectTimeout time.Duration
	log            logger.Logger
	now            func() time.Time
}

// WithPool sets the connection pool limits. Non-positive values keep the defaults.
func WithPool(maxOpen, maxIdle int) Option {
	return func(o *options) {
		if maxOpen > 0 {
			o.maxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			o.maxIdleConns = maxIdle
		}
	}
}

// WithConnectTimeout bounds the initial ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the time source used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		maxOpenConns:   10,
		maxIdleConns:   5,
		connectTimeout: 5 * time.Second,
		log:            logger.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open connects to dsn and verifies the connection. Any failure is wrapped
// in repository.ErrStoreUnavailable so callers can start in fallback mode.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: no database url configured", repository.ErrStoreUnavailable)
	}
	o := buildOptions(opts)

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", repository.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %w", repository.ErrStoreUnavailable, err)
	}

	o.log.Info(ctx, "connected to postgres",
		logger.Int("max_open_conns", o.maxOpenConns),
		logger.Int("max_idle_conns", o.maxIdleConns))
	return newStore(db, o), nil
}

// New wraps an existing handle. The handle must use the postgres driver
// name so queries are rebound to $n placeholders.
func New(db *sqlx.DB, opts ...Option) *Store {
	return newStore(db, buildOptions(opts))
}

func newStore(db *sqlx.DB, o options) *Store {
	return &Store{db: db, log: o.log, now: o.now}
}

// stamp returns t in UTC, or the store clock when t is unset.
func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	if err := migrations.Apply(ctx, s.db); err != nil {
		return classify("migrate", err)
	}
	s.log.Debug(ctx, "schema migrations applied")
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.db.PingContext(ctx))
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}
