// Package scheduler runs the periodic lock sweep that moves due ACTIVE
// contests to LOCKED.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flencrypto/cfs-platform/pkg/logger"
	"github.com/flencrypto/cfs-platform/pkg/metrics"
)

// Default sweeper configuration.
const (
	DefaultSchedule   = "@every 1m"
	defaultRunTimeout = 30 * time.Second
)

// Locker locks contests whose lock time has passed.
type Locker interface {
	LockDueContests(ctx context.Context) (int, error)
}

// Sweeper owns the cron runner.
type Sweeper struct {
	locker     Locker
	schedule   string
	runTimeout time.Duration
	cron       *cron.Cron
	logger     logger.Logger
}

// New builds a sweeper and registers its job. The schedule is validated here.
func New(locker Locker, opts ...Option) (*Sweeper, error) {
	s := &Sweeper{
		locker:     locker,
		schedule:   DefaultSchedule,
		runTimeout: defaultRunTimeout,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid lock sweep schedule %q: %w", s.schedule, err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info(ctx, "lock sweeper started", logger.String("schedule", s.schedule))
	s.cron.Start()
}

// Shutdown stops scheduling and waits for a running sweep to finish.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info(ctx, "lock sweeper stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "lock sweeper shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.locker.LockDueContests(ctx)
	if err != nil {
		metrics.RecordSweeperRun("error")
		s.logger.Error(ctx, "lock sweep failed", logger.Error(err))
		return
	}
	metrics.RecordSweeperRun("ok")
	metrics.RecordSweeperLocked(n)
	if n > 0 {
		s.logger.Info(ctx, "lock sweep locked contests",
			logger.Int("locked", n),
			logger.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000))
	}
}

// cronLogger routes cron's own logging into the service logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), "cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), "cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
