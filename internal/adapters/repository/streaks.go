package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
)

// GetOrCreateStreak returns the (student, day) record, inserting a default one
// if absent. Concurrent callers race on the unique index, never on a read.
// created is true only for the caller whose insert won.
func (s *Store) GetOrCreateStreak(ctx context.Context, studentID string, day calendar.Date) (model.StreakRecord, bool, error) {
	rec := model.StreakRecord{StudentID: studentID, Date: day, StreakCount: 1}
	res := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "streak_date"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return model.StreakRecord{}, false, res.Error
	}
	if res.RowsAffected == 1 {
		return rec, true, nil
	}

	var existing model.StreakRecord
	if err := s.conn(ctx).
		Where("student_id = ? AND streak_date = ?", studentID, day).
		First(&existing).Error; err != nil {
		return model.StreakRecord{}, false, translate(err)
	}
	return existing, false, nil
}

// IncrementStreakLessons adds one completed lesson to the record and returns
// the new count.
func (s *Store) IncrementStreakLessons(ctx context.Context, id uint64) (int, error) {
	var count int
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.StreakRecord{}).Where("id = ?", id).
			UpdateColumn("lessons_completed", gorm.Expr("lessons_completed + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&model.StreakRecord{}).Where("id = ?", id).
			Pluck("lessons_completed", &count).Error
	})
	return count, err
}

// SaveStreakTotals writes the day's time spent and, when non-nil, its streak count.
func (s *Store) SaveStreakTotals(ctx context.Context, id uint64, timeSpent time.Duration, streakCount *int) error {
	updates := map[string]interface{}{"time_spent": timeSpent}
	if streakCount != nil {
		updates["streak_count"] = *streakCount
	}
	return s.conn(ctx).Model(&model.StreakRecord{}).Where("id = ?", id).UpdateColumns(updates).Error
}

// FindStreak returns the (student, day) record or nil.
func (s *Store) FindStreak(ctx context.Context, studentID string, day calendar.Date) (*model.StreakRecord, error) {
	return s.firstStreak(s.conn(ctx).Where("student_id = ? AND streak_date = ?", studentID, day))
}

// LatestStreak returns the newest record dated on or before day, or nil.
func (s *Store) LatestStreak(ctx context.Context, studentID string, day calendar.Date) (*model.StreakRecord, error) {
	return s.firstStreak(s.conn(ctx).
		Where("student_id = ? AND streak_date <= ?", studentID, day).
		Order("streak_date DESC"))
}

func (s *Store) firstStreak(q *gorm.DB) (*model.StreakRecord, error) {
	var rec model.StreakRecord
	err := q.Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// StreaksBetween returns the records dated in [from, to], oldest first.
func (s *Store) StreaksBetween(ctx context.Context, studentID string, from, to calendar.Date) ([]model.StreakRecord, error) {
	var out []model.StreakRecord
	err := s.conn(ctx).
		Where("student_id = ? AND streak_date >= ? AND streak_date <= ?", studentID, from, to).
		Order("streak_date").
		Find(&out).Error
	return out, err
}
