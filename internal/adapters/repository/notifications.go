package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

var settingsColumns = []string{
	"lesson_completion", "streak_milestones", "inactivity_alerts",
	"weekly_summary", "monthly_summary", "in_app_notifications",
	"quiet_hours_start", "quiet_hours_end", "updated_at",
}

// GetOrCreateSettings returns the parent's settings, storing defaults first
// if the parent has none.
func (s *Store) GetOrCreateSettings(ctx context.Context, defaults model.NotificationSettings) (model.NotificationSettings, error) {
	rec := defaults
	if err := s.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "parent_id"}}, DoNothing: true}).
		Create(&rec).Error; err != nil {
		return model.NotificationSettings{}, err
	}
	var out model.NotificationSettings
	if err := s.conn(ctx).Take(&out, "parent_id = ?", defaults.ParentID).Error; err != nil {
		return model.NotificationSettings{}, translate(err)
	}
	return out, nil
}

// SaveSettings replaces the parent's settings.
func (s *Store) SaveSettings(ctx context.Context, rec *model.NotificationSettings) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "parent_id"}},
			DoUpdates: clause.AssignmentColumns(settingsColumns),
		}).
		Create(rec).Error
}

// CreateNotification inserts n.
func (s *Store) CreateNotification(ctx context.Context, n *model.ParentNotification) error {
	if !n.CreatedAt.IsZero() {
		n.CreatedAt = utc(n.CreatedAt)
	}
	return s.conn(ctx).Create(n).Error
}

// MarkNotificationSent records in-app delivery at the given instant.
func (s *Store) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	return s.setNotification(ctx, id, map[string]interface{}{
		"status":      types.StatusSent,
		"sent_in_app": true,
		"sent_at":     utc(at),
	})
}

// MarkNotificationFailed records a delivery failure.
func (s *Store) MarkNotificationFailed(ctx context.Context, id string) error {
	return s.setNotification(ctx, id, map[string]interface{}{"status": types.StatusFailed})
}

func (s *Store) setNotification(ctx context.Context, id string, updates map[string]interface{}) error {
	res := s.conn(ctx).Model(&model.ParentNotification{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadNotifications returns pending and sent notifications, newest first.
func (s *Store) UnreadNotifications(ctx context.Context, parentID string, limit int) ([]model.ParentNotification, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var out []model.ParentNotification
	err := s.conn(ctx).
		Where("parent_id = ? AND status IN ?", parentID, []types.NotificationStatus{types.StatusPending, types.StatusSent}).
		Order("created_at DESC").Order("id").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkAllRead marks every unread notification of the parent as read and
// returns how many changed.
func (s *Store) MarkAllRead(ctx context.Context, parentID string, at time.Time) (int64, error) {
	res := s.conn(ctx).Model(&model.ParentNotification{}).
		Where("parent_id = ? AND status IN ?", parentID, []types.NotificationStatus{types.StatusPending, types.StatusSent}).
		UpdateColumns(map[string]interface{}{"status": types.StatusRead, "read_at": utc(at)})
	return res.RowsAffected, res.Error
}
