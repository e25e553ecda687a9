package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
)

const defaultRefreshParallelism = 4

// RefreshStudents runs the full refresh for the given students, or for every
// student when ids is empty, at most parallel at a time. One student's
// failure does not stop the others; it returns how many succeeded and the
// joined failures.
func (s *Service) RefreshStudents(ctx context.Context, ids []string, parallel int) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		all, err := s.store.ListStudentIDs(ctx)
		if err != nil {
			return 0, err
		}
		ids = all
	}
	if parallel < 1 {
		parallel = defaultRefreshParallelism
	}

	var (
		mu   sync.Mutex
		done int
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, id := range ids {
		g.Go(func() error {
			err := s.engine.RefreshAll(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("refresh %s: %w", id, err))
				return nil
			}
			done++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return done, err
	}
	s.logger.Info(ctx, "students refreshed",
		logger.Int("students", len(ids)),
		logger.Int("refreshed", done),
		logger.Int("failed", len(errs)))
	return done, errors.Join(errs...)
}

// CheckInactivity alerts parents of children inactive for days days. days < 1
// uses the configured default.
func (s *Service) CheckInactivity(ctx context.Context, days int) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if days < 1 {
		days = s.cfg.InactivityDays
	}
	return s.notifier.CheckInactivity(ctx, days)
}

// SendSummaries sends the weekly or monthly summary about every linked child.
func (s *Service) SendSummaries(ctx context.Context, t types.NotificationType) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.notifier.SendSummaries(ctx, t)
}
