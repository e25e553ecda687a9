package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

// ProgressChange describes what applying one progress event did.
type ProgressChange struct {
	Record model.ProgressRecord
	Lesson model.Lesson
	// Created is true when this event started the lesson.
	Created bool
	// Completed is true only on the transition from not completed to completed.
	Completed bool
}

// ApplyProgress upserts the (student, lesson) progress record from ev inside
// one transaction. The lesson must exist; the student is registered as a
// placeholder if unknown. started_at is fixed at creation, completed_at at the
// completion transition; score and time spent overwrite when supplied.
func (s *Store) ApplyProgress(ctx context.Context, ev model.Event) (ProgressChange, error) {
	ts := utc(ev.TS)
	if ev.TS.IsZero() {
		ts = now()
	}

	var out ProgressChange
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out.Lesson, "id = ?", ev.LessonID).Error; err != nil {
			return translate(err)
		}
		student := model.Student{ID: ev.StudentID, Name: ev.StudentID}
		if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
			Create(&student).Error; err != nil {
			return err
		}

		fresh := model.ProgressRecord{
			StudentID:    ev.StudentID,
			LessonID:     ev.LessonID,
			StartedAt:    ts,
			LastAccessed: ts,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&fresh)
		if res.Error != nil {
			return res.Error
		}
		out.Created = res.RowsAffected == 1

		var cur model.ProgressRecord
		if err := tx.Where("student_id = ? AND lesson_id = ?", ev.StudentID, ev.LessonID).
			First(&cur).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"last_accessed": ts}
		cur.LastAccessed = ts
		if ev.Score != nil {
			score := *ev.Score
			updates["score"] = score
			cur.Score = &score
		}
		if ev.TimeSpent != nil {
			spent := *ev.TimeSpent
			updates["time_spent"] = spent
			cur.TimeSpent = &spent
		}
		if ev.Completed && !cur.Completed {
			completedAt := ts
			updates["completed"] = true
			updates["completed_at"] = completedAt
			cur.Completed = true
			cur.CompletedAt = &completedAt
			out.Completed = true
		}
		if err := tx.Model(&model.ProgressRecord{}).Where("id = ?", cur.ID).Updates(updates).Error; err != nil {
			return err
		}
		out.Record = cur
		return nil
	})
	if err != nil {
		return ProgressChange{}, err
	}
	return out, nil
}

// ProgressStartedBetween returns the student's records with started_at in [from, to).
func (s *Store) ProgressStartedBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.ProgressRecord, error) {
	var out []model.ProgressRecord
	err := s.conn(ctx).
		Where("student_id = ? AND started_at >= ? AND started_at < ?", studentID, utc(from), utc(to)).
		Order("started_at").
		Find(&out).Error
	return out, err
}

// HasProgressStartedBetween reports whether any record starts in [from, to).
func (s *Store) HasProgressStartedBetween(ctx context.Context, studentID string, from, to time.Time) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&model.ProgressRecord{}).
		Where("student_id = ? AND started_at >= ? AND started_at < ?", studentID, utc(from), utc(to)).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// SumTimeStartedBetween sums the known time spent of records started in [from, to).
func (s *Store) SumTimeStartedBetween(ctx context.Context, studentID string, from, to time.Time) (time.Duration, error) {
	var total int64
	err := s.conn(ctx).Model(&model.ProgressRecord{}).
		Select("COALESCE(SUM(time_spent), 0)").
		Where("student_id = ? AND started_at >= ? AND started_at < ? AND time_spent IS NOT NULL", studentID, utc(from), utc(to)).
		Scan(&total).Error
	return time.Duration(total), err
}

// ProgressForLessonType returns all of the student's records on lessons of one type.
func (s *Store) ProgressForLessonType(ctx context.Context, studentID string, lessonType types.LessonType) ([]model.ProgressRecord, error) {
	lessons := s.conn(ctx).Model(&model.Lesson{}).Select("id").Where("lesson_type = ?", lessonType)
	var out []model.ProgressRecord
	err := s.conn(ctx).
		Where("student_id = ? AND lesson_id IN (?)", studentID, lessons).
		Find(&out).Error
	return out, err
}

// LastAccess returns when the student last touched any lesson, or nil if never.
func (s *Store) LastAccess(ctx context.Context, studentID string) (*time.Time, error) {
	var rec model.ProgressRecord
	err := s.conn(ctx).
		Where("student_id = ?", studentID).
		Order("last_accessed DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	at := rec.LastAccessed
	return &at, nil
}
