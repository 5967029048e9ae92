package scheduler

import (
	"time"

	"github.com/flencrypto/cfs-platform/pkg/logger"
)

// Option applies a configuration option to the Sweeper.
type Option func(*Sweeper)

// WithSchedule sets the cron spec of the lock sweep.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithRunTimeout bounds a single sweep.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the sweeper.
func WithLogger(l logger.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}
