package worker

import (
	"github.com/okian/pragati/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets the pool logger. Workers log through named children of it.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInboxSize sets how many events may wait for each worker.
func WithInboxSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.inboxSize = size
		}
	}
}
