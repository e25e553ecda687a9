package repository

import (
	"time"

	"github.com/okian/pragati/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*options)

type options struct {
	log             logger.Logger
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	slowThreshold   time.Duration
	logQueries      bool
}

func defaultOptions() options {
	return options{
		log:             logger.NewNop(),
		maxOpenConns:    20,
		maxIdleConns:    5,
		connMaxLifetime: 30 * time.Minute,
		slowThreshold:   200 * time.Millisecond,
	}
}

// WithLogger sets the logger SQL diagnostics are written to.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithPool sets the connection pool limits.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(o *options) {
		if maxOpen > 0 {
			o.maxOpenConns = maxOpen
		}
		if maxIdle >= 0 {
			o.maxIdleConns = maxIdle
		}
		if maxLifetime > 0 {
			o.connMaxLifetime = maxLifetime
		}
	}
}

// WithSlowThreshold sets the latency above which a statement is logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.slowThreshold = d
		}
	}
}

// WithQueryLogging logs every statement at debug level.
func WithQueryLogging(enabled bool) Option {
	return func(o *options) {
		o.logQueries = enabled
	}
}
