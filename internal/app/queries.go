package service

import (
	"context"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

// Catalog.

func (s *Service) UpsertLesson(ctx context.Context, l *model.Lesson) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.UpsertLesson(ctx, l)
}

func (s *Service) UpsertParent(ctx context.Context, p *model.Parent) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.UpsertParent(ctx, p)
}

func (s *Service) UpsertStudent(ctx context.Context, st *model.Student) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.UpsertStudent(ctx, st)
}

func (s *Service) GetStudent(ctx context.Context, id string) (model.Student, error) {
	if err := s.ready(); err != nil {
		return model.Student{}, err
	}
	return s.store.GetStudent(ctx, id)
}

// Analytics.

// Today is the current calendar day in the configured zone.
func (s *Service) Today() calendar.Date {
	return calendar.DateOf(s.clock(), s.loc)
}

func (s *Service) CurrentStreak(ctx context.Context, studentID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.engine.CurrentStreak(ctx, studentID)
}

func (s *Service) WeeklyHistory(ctx context.Context, studentID string, limit int) ([]model.WeeklyRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.engine.WeeklyHistory(ctx, studentID, limit)
}

func (s *Service) MonthlyHistory(ctx context.Context, studentID string, limit int) ([]model.MonthlyRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.engine.MonthlyHistory(ctx, studentID, limit)
}

func (s *Service) Subjects(ctx context.Context, studentID string) ([]model.SubjectPerformanceRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.engine.Subjects(ctx, studentID)
}

// Activities returns the latest entries, newest first. limit is clamped to
// the configured maximum.
func (s *Service) Activities(ctx context.Context, studentID string, limit int) ([]model.ActivityLogEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit > s.cfg.MaxActivityLimit {
		limit = s.cfg.MaxActivityLimit
	}
	return s.engine.Activities(ctx, studentID, limit)
}

func (s *Service) Calendar(ctx context.Context, studentID string, year, month int) (types.Calendar, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.engine.Calendar(ctx, studentID, year, month)
}

func (s *Service) ProgressChart(ctx context.Context, studentID string, period types.ChartPeriod) (types.ProgressChart, error) {
	if err := s.ready(); err != nil {
		return types.ProgressChart{}, err
	}
	return s.engine.ProgressChart(ctx, studentID, period)
}

func (s *Service) SubjectChart(ctx context.Context, studentID string) (types.SubjectChart, error) {
	if err := s.ready(); err != nil {
		return types.SubjectChart{}, err
	}
	return s.engine.SubjectChart(ctx, studentID)
}

// Refresh recomputes every aggregate of one student.
func (s *Service) Refresh(ctx context.Context, studentID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.store.GetStudent(ctx, studentID); err != nil {
		return err
	}
	return s.engine.RefreshAll(ctx, studentID)
}

// Notifications.

func (s *Service) Unread(ctx context.Context, parentID string, limit int) ([]model.ParentNotification, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.notifier.Unread(ctx, parentID, limit)
}

func (s *Service) MarkAllRead(ctx context.Context, parentID string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.notifier.MarkAllRead(ctx, parentID)
}

func (s *Service) Settings(ctx context.Context, parentID string) (model.NotificationSettings, error) {
	if err := s.ready(); err != nil {
		return model.NotificationSettings{}, err
	}
	if _, err := s.store.GetParent(ctx, parentID); err != nil {
		return model.NotificationSettings{}, err
	}
	return s.notifier.Settings(ctx, parentID)
}

func (s *Service) UpdateSettings(ctx context.Context, settings model.NotificationSettings) (model.NotificationSettings, error) {
	if err := s.ready(); err != nil {
		return model.NotificationSettings{}, err
	}
	if _, err := s.store.GetParent(ctx, settings.ParentID); err != nil {
		return model.NotificationSettings{}, err
	}
	return s.notifier.UpdateSettings(ctx, settings)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.opened {
		return ErrNotStarted
	}
	return nil
}
