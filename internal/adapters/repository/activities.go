package repository

import (
	"context"
	"time"

	"github.com/okian/pragati/internal/domain/model"
)

// AppendActivity inserts one timeline entry.
func (s *Store) AppendActivity(ctx context.Context, e *model.ActivityLogEntry) error {
	if !e.CreatedAt.IsZero() {
		e.CreatedAt = utc(e.CreatedAt)
	}
	return s.conn(ctx).Create(e).Error
}

// Activities returns up to limit entries, newest first.
func (s *Store) Activities(ctx context.Context, studentID string, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var out []model.ActivityLogEntry
	err := s.conn(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ActivitiesBetween returns entries created in [from, to), oldest first.
func (s *Store) ActivitiesBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.ActivityLogEntry, error) {
	var out []model.ActivityLogEntry
	err := s.conn(ctx).
		Where("student_id = ? AND created_at >= ? AND created_at < ?", studentID, utc(from), utc(to)).
		Order("created_at").Order("id").
		Find(&out).Error
	return out, err
}
