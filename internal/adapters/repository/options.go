package repository

import (
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

// Option applies a configuration option to the Facade.
type Option func(*Facade)

// WithLogger sets the logger used to report the switch to fallback mode.
func WithLogger(l logger.Logger) Option {
	return func(f *Facade) {
		if l != nil {
			f.log = l
		}
	}
}
