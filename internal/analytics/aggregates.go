package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/rollup"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
)

// UpdateWeekly recomputes the week starting on weekStart's Monday, or the
// current week when weekStart is nil, and replaces the stored aggregate.
func (e *Engine) UpdateWeekly(ctx context.Context, studentID string, weekStart *calendar.Date) (rec model.WeeklyRecord, err error) {
	defer observe("weekly", time.Now(), &err)

	week := e.Today().StartOfWeek()
	if weekStart != nil {
		week = weekStart.StartOfWeek()
	}
	from, _ := week.Bounds(e.loc)
	_, to := week.AddDays(6).Bounds(e.loc)

	records, err := e.store.ProgressStartedBetween(ctx, studentID, from, to)
	if err != nil {
		return model.WeeklyRecord{}, fmt.Errorf("week %s for %s: %w", week, studentID, err)
	}
	stats := rollup.Summarize(records, e.loc)
	rec = model.WeeklyRecord{
		StudentID:        studentID,
		WeekStart:        week,
		LessonsCompleted: stats.LessonsCompleted,
		TotalTimeSpent:   stats.TotalTimeSpent,
		AverageScore:     stats.AverageScore,
		ActiveDays:       stats.ActiveDays,
	}
	if err := e.store.UpsertWeekly(ctx, &rec); err != nil {
		return model.WeeklyRecord{}, fmt.Errorf("save week %s for %s: %w", week, studentID, err)
	}
	e.log.Debug(ctx, "weekly progress updated",
		logger.String("student_id", studentID),
		logger.String("week_start", week.String()),
		logger.Int("lessons", rec.LessonsCompleted))
	return rec, nil
}

// UpdateMonthly recomputes one calendar month, the current one when year or
// month is 0, and replaces the stored aggregate. max_streak is the best streak
// count recorded in the month, 0 when there is none.
func (e *Engine) UpdateMonthly(ctx context.Context, studentID string, year, month int) (rec model.MonthlyRecord, err error) {
	defer observe("monthly", time.Now(), &err)

	if year == 0 || month == 0 {
		today := e.Today()
		year, month = today.Year, int(today.Month)
	}
	if month < 1 || month > 12 {
		return model.MonthlyRecord{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	first, last := calendar.MonthRange(year, time.Month(month))
	from, _ := first.Bounds(e.loc)
	_, to := last.Bounds(e.loc)

	records, err := e.store.ProgressStartedBetween(ctx, studentID, from, to)
	if err != nil {
		return model.MonthlyRecord{}, fmt.Errorf("month %d-%02d for %s: %w", year, month, studentID, err)
	}
	streaks, err := e.store.StreaksBetween(ctx, studentID, first, last)
	if err != nil {
		return model.MonthlyRecord{}, fmt.Errorf("month %d-%02d streaks for %s: %w", year, month, studentID, err)
	}
	stats := rollup.Summarize(records, e.loc)
	rec = model.MonthlyRecord{
		StudentID:        studentID,
		Year:             year,
		Month:            month,
		LessonsCompleted: stats.LessonsCompleted,
		TotalTimeSpent:   stats.TotalTimeSpent,
		AverageScore:     stats.AverageScore,
		ActiveDays:       stats.ActiveDays,
		MaxStreak:        rollup.MaxStreak(streaks),
	}
	if err := e.store.UpsertMonthly(ctx, &rec); err != nil {
		return model.MonthlyRecord{}, fmt.Errorf("save month %d-%02d for %s: %w", year, month, studentID, err)
	}
	return rec, nil
}

// UpdateSubjectPerformance recomputes the aggregate for one lesson type, or for
// every type when lessonType is nil.
func (e *Engine) UpdateSubjectPerformance(ctx context.Context, studentID string, lessonType *types.LessonType) (err error) {
	defer observe("subject", time.Now(), &err)

	lessonTypes := types.LessonTypes()
	if lessonType != nil {
		if !lessonType.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidLessonType, *lessonType)
		}
		lessonTypes = []types.LessonType{*lessonType}
	}

	for _, lt := range lessonTypes {
		if _, err := e.updateSubject(ctx, studentID, lt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) updateSubject(ctx context.Context, studentID string, lt types.LessonType) (model.SubjectPerformanceRecord, error) {
	total, err := e.store.CountActiveLessons(ctx, lt)
	if err != nil {
		return model.SubjectPerformanceRecord{}, fmt.Errorf("count %s lessons: %w", lt, err)
	}
	records, err := e.store.ProgressForLessonType(ctx, studentID, lt)
	if err != nil {
		return model.SubjectPerformanceRecord{}, fmt.Errorf("%s progress for %s: %w", lt, studentID, err)
	}
	stats := rollup.Summarize(records, e.loc)
	rec := model.SubjectPerformanceRecord{
		StudentID:        studentID,
		LessonType:       lt,
		TotalLessons:     total,
		CompletedLessons: stats.LessonsCompleted,
		AverageScore:     stats.AverageScore,
		TotalTimeSpent:   stats.TotalTimeSpent,
	}
	if err := e.store.UpsertSubject(ctx, &rec); err != nil {
		return model.SubjectPerformanceRecord{}, fmt.Errorf("save %s performance for %s: %w", lt, studentID, err)
	}
	return rec, nil
}
