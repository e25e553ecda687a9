package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
)

var statColumns = []string{"lessons_completed", "total_time_spent", "average_score", "active_days"}

// UpsertWeekly replaces the (student, week_start) aggregate.
func (s *Store) UpsertWeekly(ctx context.Context, rec *model.WeeklyRecord) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns(statColumns),
		}).
		Create(rec).Error
}

// UpsertMonthly replaces the (student, year, month) aggregate.
func (s *Store) UpsertMonthly(ctx context.Context, rec *model.MonthlyRecord) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns(append([]string{"max_streak"}, statColumns...)),
		}).
		Create(rec).Error
}

// UpsertSubject replaces the (student, lesson_type) aggregate.
func (s *Store) UpsertSubject(ctx context.Context, rec *model.SubjectPerformanceRecord) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "lesson_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_lessons", "completed_lessons", "average_score", "total_time_spent",
			}),
		}).
		Create(rec).Error
}

// GetWeekly returns ErrNotFound when the week was never aggregated.
func (s *Store) GetWeekly(ctx context.Context, studentID string, weekStart calendar.Date) (model.WeeklyRecord, error) {
	var rec model.WeeklyRecord
	err := s.conn(ctx).Where("student_id = ? AND week_start = ?", studentID, weekStart).Take(&rec).Error
	return rec, translate(err)
}

// GetMonthly returns ErrNotFound when the month was never aggregated.
func (s *Store) GetMonthly(ctx context.Context, studentID string, year, month int) (model.MonthlyRecord, error) {
	var rec model.MonthlyRecord
	err := s.conn(ctx).Where("student_id = ? AND year = ? AND month = ?", studentID, year, month).Take(&rec).Error
	return rec, translate(err)
}

// WeeklySince returns weeks starting on or after from, oldest first.
func (s *Store) WeeklySince(ctx context.Context, studentID string, from calendar.Date) ([]model.WeeklyRecord, error) {
	var out []model.WeeklyRecord
	err := s.conn(ctx).
		Where("student_id = ? AND week_start >= ?", studentID, from).
		Order("week_start").
		Find(&out).Error
	return out, err
}

// ListWeekly returns up to limit weeks, newest first.
func (s *Store) ListWeekly(ctx context.Context, studentID string, limit int) ([]model.WeeklyRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var out []model.WeeklyRecord
	err := s.conn(ctx).
		Where("student_id = ?", studentID).
		Order("week_start DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LatestMonthly returns up to limit months, newest first.
func (s *Store) LatestMonthly(ctx context.Context, studentID string, limit int) ([]model.MonthlyRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var out []model.MonthlyRecord
	err := s.conn(ctx).
		Where("student_id = ?", studentID).
		Order("year DESC").Order("month DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListSubjects returns the student's subject aggregates ordered by lesson type.
func (s *Store) ListSubjects(ctx context.Context, studentID string) ([]model.SubjectPerformanceRecord, error) {
	var out []model.SubjectPerformanceRecord
	err := s.conn(ctx).
		Where("student_id = ?", studentID).
		Order("lesson_type").
		Find(&out).Error
	return out, err
}
