// Package worker applies queued learning events. Events are partitioned by
// student so one student's events are always applied by the same worker, in
// the order they were queued.
package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

const (
	defaultInboxSize = 64
	maxDefaultCount  = 16
)

// Handler applies one event.
type Handler interface {
	Handle(ctx context.Context, e model.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e model.Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, e model.Event) error { return f(ctx, e) } //nolint:gocritic // hugeParam: events travel by value

// Source is where the pool reads events from.
type Source interface {
	Dequeue() <-chan model.Event
}

// Partition maps a student onto one of n workers.
func Partition(studentID string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(studentID))
	return int(h.Sum32() % uint32(n))
}

type inMemoryWorker struct {
	id      int
	inbox   chan model.Event
	handler Handler
	logger  logger.Logger
	pool    *Pool
}

func (w *inMemoryWorker) run(ctx context.Context) {
	defer w.pool.wg.Done()
	for ev := range w.inbox {
		w.process(ctx, ev)
	}
}

func (w *inMemoryWorker) process(ctx context.Context, ev model.Event) { //nolint:gocritic // hugeParam: events travel by value
	metrics.WorkerBusy(1)
	defer metrics.WorkerBusy(-1)

	start := time.Now()
	err := w.handler.Handle(ctx, ev)
	if err != nil {
		w.pool.failed.Add(1)
		metrics.RecordEventFailed(string(ev.Kind))
		metrics.RecordError("worker", err)
		w.logger.Error(ctx, "failed to apply event",
			logger.String("event_id", ev.EventID),
			logger.String("student_id", ev.StudentID),
			logger.String("lesson_id", ev.LessonID),
			logger.Error(err))
		return
	}
	w.pool.processed.Add(1)
	metrics.RecordEventProcessed(string(ev.Kind), float64(time.Since(start).Milliseconds()))
}

// Pool fans events out from a Source to a fixed set of workers.
type Pool struct {
	source    Source
	handler   Handler
	workers   []*inMemoryWorker
	inboxSize int
	logger    logger.Logger

	wg        sync.WaitGroup
	started   atomic.Bool
	done      chan struct{}
	processed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool of count workers. count < 1 picks one per CPU,
// capped at 16.
func NewPool(count int, source Source, handler Handler, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
		if count > maxDefaultCount {
			count = maxDefaultCount
		}
	}
	p := &Pool{
		source:    source,
		handler:   handler,
		workers:   make([]*inMemoryWorker, count),
		inboxSize: defaultInboxSize,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	for i := range p.workers {
		p.workers[i] = &inMemoryWorker{
			id:      i,
			inbox:   make(chan model.Event, p.inboxSize),
			handler: handler,
			logger:  p.logger.Named("worker-" + strconv.Itoa(i)),
			pool:    p,
		}
	}
	return p
}

// Start launches the workers and the dispatcher. Workers stop once the
// source is closed and drained, or when ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))

	go func() {
		p.dispatch(ctx)
		p.wg.Wait()
		metrics.UpdateWorkerCount(0)
		close(p.done)
	}()
}

func (p *Pool) dispatch(ctx context.Context) {
	defer func() {
		for _, w := range p.workers {
			close(w.inbox)
		}
	}()
	events := p.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w := p.workers[Partition(ev.StudentID, len(p.workers))]
			select {
			case w.inbox <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Shutdown closes the source when it can be closed and waits for queued
// events to be applied, or for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}
	select {
	case <-p.done:
		p.logger.Info(ctx, "worker pool stopped",
			logger.Int64("processed", p.processed.Load()),
			logger.Int64("failed", p.failed.Load()))
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed is the number of events applied successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed is the number of events whose handler returned an error.
func (p *Pool) Failed() int64 { return p.failed.Load() }
