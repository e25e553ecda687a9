// Package dedupe tracks event ids so each event is applied at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/pkg/metrics"
)

// Default in-memory limits.
const (
	defaultMaxSize = 50000
	defaultTTL     = 24 * time.Hour
)

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) (bool, error)

	// Unrecord forgets id so a rejected event can be retried, e.g. after
	// queue backpressure.
	Unrecord(ctx context.Context, id string) error

	// Size is the number of ids currently remembered.
	Size() int64
}

type entry struct {
	id string
	at time.Time
}

// memoryDeduper keeps ids in arrival order. The oldest id is forgotten when
// the set is full or once it is older than ttl.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	clock   calendar.Clock
}

// NewInMemoryDeduper creates a process-local deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
		clock:   calendar.SystemClock,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *memoryDeduper) SeenAndRecord(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	d.expire(now)
	if _, ok := d.seen[id]; ok {
		return true, nil
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.seen[id] = d.order.PushBack(entry{id: id, at: now})
	metrics.UpdateDedupeSize(int64(d.order.Len()))
	return false, nil
}

func (d *memoryDeduper) Unrecord(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.remove(el)
		metrics.UpdateDedupeSize(int64(d.order.Len()))
	}
	return nil
}

func (d *memoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// expire drops ids recorded more than ttl ago. Must be called with d.mu held.
func (d *memoryDeduper) expire(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if now.Sub(el.Value.(entry).at) < d.ttl {
			return
		}
		d.remove(el)
	}
}

func (d *memoryDeduper) remove(el *list.Element) {
	delete(d.seen, el.Value.(entry).id)
	d.order.Remove(el)
}
