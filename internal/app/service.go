// Package service assembles storage, analytics, notifications and the ingest
// pipeline into the object the HTTP API and the batch jobs run against.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pragati/internal/adapters/cache"
	eventqueue "github.com/okian/pragati/internal/adapters/mq/queue"
	workerpool "github.com/okian/pragati/internal/adapters/mq/worker"
	"github.com/okian/pragati/internal/adapters/repository"
	"github.com/okian/pragati/internal/analytics"
	"github.com/okian/pragati/internal/config"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/dedupe"
	"github.com/okian/pragati/internal/ingest"
	"github.com/okian/pragati/internal/notify"
	"github.com/okian/pragati/pkg/logger"
)

var (
	_ analytics.Store = (*repository.Store)(nil)
	_ notify.Store    = (*repository.Store)(nil)
	_ ingest.Store    = (*repository.Store)(nil)
	_ notify.Stats    = (*analytics.Engine)(nil)
	_ ingest.Notifier = (*notify.Notifier)(nil)
)

// ErrNotStarted is returned by ingest calls before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns every long-lived component.
type Service struct {
	mu sync.RWMutex

	cfg   *config.Config
	loc   *time.Location
	clock calendar.Clock

	store     *repository.Store
	ownStore  bool
	engine    *analytics.Engine
	notifier  *notify.Notifier
	processor *ingest.Processor

	deduper    dedupe.Deduper
	ownDeduper bool
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	stopRun    context.CancelFunc

	opened  bool
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses an already opened store. The service will not close it.
func WithStore(store *repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithDeduper replaces the deduper the config would build. The service will
// not close it.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
		s.ownDeduper = false
	}
}

// WithClock sets the source of "now" for analytics and notifications.
func WithClock(c calendar.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// New constructs a Service from cfg. Nothing is opened until Open or Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New(context.Background())
	}
	s := &Service{
		cfg:   cfg,
		clock: calendar.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Open connects storage and builds the analytics and notification layers.
// It is enough for batch jobs; the API server also needs Start.
func (s *Service) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(ctx)
}

func (s *Service) open(ctx context.Context) error {
	if s.opened {
		return nil
	}
	loc, err := s.cfg.Location()
	if err != nil {
		return fmt.Errorf("timezone %q: %w", s.cfg.Timezone, err)
	}
	quietStart, err := calendar.ParseTimeOfDay(s.cfg.QuietHoursStart)
	if err != nil {
		return err
	}
	quietEnd, err := calendar.ParseTimeOfDay(s.cfg.QuietHoursEnd)
	if err != nil {
		return err
	}
	s.loc = loc

	if s.store == nil {
		store, err := repository.Open(ctx, s.cfg.DBDriver, s.cfg.DBDSN,
			repository.WithLogger(s.logger.Named("repository")),
			repository.WithPool(s.cfg.DBMaxOpenConns, s.cfg.DBMaxIdleConns, s.cfg.DBConnMaxLifetime),
		)
		if err != nil {
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return err
		}
		s.store = store
		s.ownStore = true
	}

	s.engine = analytics.New(s.store,
		analytics.WithClock(s.clock),
		analytics.WithLocation(loc),
		analytics.WithLogger(s.logger.Named("analytics")),
	)
	s.notifier = notify.New(s.store, s.engine,
		notify.WithClock(s.clock),
		notify.WithLocation(loc),
		notify.WithLogger(s.logger.Named("notify")),
		notify.WithQuietHours(quietStart, quietEnd),
	)
	s.processor = ingest.New(s.store, s.engine, s.notifier,
		ingest.WithMilestones(s.cfg.StreakMilestones),
		ingest.WithLogger(s.logger.Named("ingest")),
	)
	s.opened = true
	return nil
}

// Start opens the service and launches the ingest pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	if s.deduper == nil {
		d, err := s.newDeduper(ctx)
		if err != nil {
			return err
		}
		s.deduper = d
		s.ownDeduper = true
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.cfg.EventQueueSize))
	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, s.processor,
		workerpool.WithLogger(s.logger.Named("worker-pool")))
	// Workers outlive the request that started them; Stop ends them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopRun = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "pragati service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.cfg.EventQueueSize),
		logger.String("dedupe_backend", s.cfg.DedupeBackend),
		logger.String("timezone", s.loc.String()))
	return nil
}

func (s *Service) newDeduper(ctx context.Context) (dedupe.Deduper, error) {
	if s.cfg.DedupeBackend == "redis" {
		rdb, err := cache.Dial(ctx, s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisDeduper(rdb,
			cache.WithTTL(s.cfg.DedupeTTL),
			cache.WithLogger(s.logger.Named("dedupe"))), nil
	}
	return dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.cfg.DedupeSize),
		dedupe.WithTTL(s.cfg.DedupeTTL),
	), nil
}

// Stop drains the queue, stops the workers and closes what the service opened.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.started {
		s.logger.Info(ctx, "stopping pragati service...")
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		s.stopRun()
		if closer, ok := s.deduper.(interface{ Close() error }); ok && s.ownDeduper {
			errs = append(errs, closer.Close())
		}
		s.started = false
	}
	if s.opened && s.ownStore {
		errs = append(errs, s.store.Close())
		s.store = nil
	}
	s.opened = false
	return errors.Join(errs...)
}

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.opened {
		return ErrNotStarted
	}
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.cfg.WorkerCount,
		"queueCapacity":  s.cfg.EventQueueSize,
		"dedupeBackend":  s.cfg.DedupeBackend,
		"timezone":       s.cfg.Timezone,
		"dedupeCapacity": s.cfg.DedupeSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["dedupeSize"] = s.deduper.Size()
		stats["workers"] = s.pool.Size()
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()
	}
	return stats
}
