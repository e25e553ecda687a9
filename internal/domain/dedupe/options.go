package dedupe

import (
	"time"

	"github.com/okian/pragati/internal/domain/calendar"
)

// Option applies a configuration option to the in-memory deduper.
type Option func(*memoryDeduper)

// WithMaxSize sets how many ids are remembered. When full, the oldest id is
// forgotten. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long an id is remembered. ttl <= 0 keeps ids until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(d *memoryDeduper) {
		d.ttl = ttl
	}
}

// WithClock sets the time source used for expiry.
func WithClock(c calendar.Clock) Option {
	return func(d *memoryDeduper) {
		if c != nil {
			d.clock = c
		}
	}
}
