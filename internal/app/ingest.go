package service

import (
	"context"
	"errors"
	"fmt"

	eventqueue "github.com/okian/pragati/internal/adapters/mq/queue"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// ErrBackpressure means the event was not queued and may be retried.
var ErrBackpressure = errors.New("event queue is full")

// Submit dedupes e by its id and queues it for the workers. It reports
// duplicate=true, with no error, for an id seen before. When the queue
// refuses the event its id is forgotten so the client can retry.
func (s *Service) Submit(ctx context.Context, e model.Event) (bool, error) { //nolint:gocritic // hugeParam: events travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	seen, err := s.deduper.SeenAndRecord(ctx, e.EventID)
	if err != nil {
		metrics.RecordEventRejected("dedupe_error")
		return false, fmt.Errorf("dedupe %s: %w", e.EventID, err)
	}
	if seen {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event detected, skipping",
			logger.String("event_id", e.EventID),
			logger.String("student_id", e.StudentID))
		return true, nil
	}

	if err := s.queue.Enqueue(ctx, e); err != nil {
		if uerr := s.deduper.Unrecord(ctx, e.EventID); uerr != nil {
			s.logger.Warn(ctx, "failed to roll back dedupe record",
				logger.String("event_id", e.EventID), logger.Error(uerr))
		}
		if errors.Is(err, eventqueue.ErrFull) || errors.Is(err, eventqueue.ErrClosed) {
			metrics.RecordEventRejected("backpressure")
			return false, fmt.Errorf("%w: %v", ErrBackpressure, err)
		}
		metrics.RecordEventRejected("enqueue_error")
		return false, err
	}
	metrics.RecordEventAccepted(string(e.Kind))
	return false, nil
}

// Apply runs e through the ingest processor synchronously, bypassing the
// queue. Seeding and tests use it.
func (s *Service) Apply(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.opened {
		return ErrNotStarted
	}
	return s.processor.Handle(ctx, e)
}
