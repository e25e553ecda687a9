package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/rollup"
	"github.com/okian/pragati/internal/domain/types"
)

const (
	chartWeeks  = 8
	chartMonths = 6
)

// ProgressChart returns chart series for the last 8 weeks or the last 6 months.
func (e *Engine) ProgressChart(ctx context.Context, studentID string, period types.ChartPeriod) (types.ProgressChart, error) {
	switch period {
	case types.PeriodWeek:
		return e.weekChart(ctx, studentID)
	case types.PeriodMonth:
		return e.monthChart(ctx, studentID)
	default:
		return types.ProgressChart{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
}

func (e *Engine) weekChart(ctx context.Context, studentID string) (types.ProgressChart, error) {
	weeks, err := e.store.WeeklySince(ctx, studentID, e.Today().AddDays(-7*chartWeeks))
	if err != nil {
		return types.ProgressChart{}, err
	}
	chart := newChart(len(weeks))
	for _, w := range weeks {
		chart.Labels = append(chart.Labels, fmt.Sprintf("Week of %02d/%02d", int(w.WeekStart.Month), w.WeekStart.Day))
		chart.Lessons = append(chart.Lessons, w.LessonsCompleted)
		chart.Hours = append(chart.Hours, rollup.Hours(w.TotalTimeSpent))
		chart.Scores = append(chart.Scores, w.AverageScore)
	}
	return chart, nil
}

func (e *Engine) monthChart(ctx context.Context, studentID string) (types.ProgressChart, error) {
	months, err := e.store.LatestMonthly(ctx, studentID, chartMonths)
	if err != nil {
		return types.ProgressChart{}, err
	}
	chart := newChart(len(months))
	chart.Streaks = make([]int, 0, len(months))
	for i := len(months) - 1; i >= 0; i-- {
		m := months[i]
		chart.Labels = append(chart.Labels, fmt.Sprintf("%d/%02d", m.Year, m.Month))
		chart.Lessons = append(chart.Lessons, m.LessonsCompleted)
		chart.Hours = append(chart.Hours, rollup.Hours(m.TotalTimeSpent))
		chart.Scores = append(chart.Scores, m.AverageScore)
		chart.Streaks = append(chart.Streaks, m.MaxStreak)
	}
	return chart, nil
}

func newChart(n int) types.ProgressChart {
	return types.ProgressChart{
		Labels:  make([]string, 0, n),
		Lessons: make([]int, 0, n),
		Hours:   make([]float64, 0, n),
		Scores:  make([]float64, 0, n),
	}
}

// SubjectChart returns per-subject completion, score and hours series.
func (e *Engine) SubjectChart(ctx context.Context, studentID string) (types.SubjectChart, error) {
	subjects, err := e.store.ListSubjects(ctx, studentID)
	if err != nil {
		return types.SubjectChart{}, err
	}
	chart := types.SubjectChart{
		Subjects:   make([]string, 0, len(subjects)),
		Completion: make([]float64, 0, len(subjects)),
		Scores:     make([]float64, 0, len(subjects)),
		Hours:      make([]float64, 0, len(subjects)),
	}
	for _, s := range subjects {
		chart.Subjects = append(chart.Subjects, s.LessonType.Label())
		chart.Completion = append(chart.Completion, s.CompletionPercentage())
		chart.Scores = append(chart.Scores, s.AverageScore)
		chart.Hours = append(chart.Hours, rollup.Hours(s.TotalTimeSpent))
	}
	return chart, nil
}

// Calendar groups the month's activities by day of month, each day in
// chronological order.
func (e *Engine) Calendar(ctx context.Context, studentID string, year, month int) (types.Calendar, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	first, last := calendar.MonthRange(year, time.Month(month))
	from, _ := first.Bounds(e.loc)
	_, to := last.Bounds(e.loc)

	entries, err := e.store.ActivitiesBetween(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}
	titles, err := e.store.LessonTitles(ctx, lessonIDs(entries))
	if err != nil {
		return nil, err
	}

	out := make(types.Calendar)
	for _, a := range entries {
		at := a.CreatedAt.In(e.loc)
		entry := types.CalendarEntry{
			Type:        a.Type,
			Description: a.Description,
			Time:        at.Format("15:04"),
		}
		if a.LessonID != nil {
			if title, ok := titles[*a.LessonID]; ok {
				entry.Lesson = &title
			}
		}
		out[at.Day()] = append(out[at.Day()], entry)
	}
	return out, nil
}

func lessonIDs(entries []model.ActivityLogEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, a := range entries {
		if a.LessonID == nil {
			continue
		}
		if _, ok := seen[*a.LessonID]; ok {
			continue
		}
		seen[*a.LessonID] = struct{}{}
		ids = append(ids, *a.LessonID)
	}
	return ids
}

// WeeklyHistory returns up to limit weekly aggregates, newest first.
func (e *Engine) WeeklyHistory(ctx context.Context, studentID string, limit int) ([]model.WeeklyRecord, error) {
	return e.store.ListWeekly(ctx, studentID, limit)
}

// MonthlyHistory returns up to limit monthly aggregates, newest first.
func (e *Engine) MonthlyHistory(ctx context.Context, studentID string, limit int) ([]model.MonthlyRecord, error) {
	return e.store.LatestMonthly(ctx, studentID, limit)
}

// Subjects returns the stored subject aggregates.
func (e *Engine) Subjects(ctx context.Context, studentID string) ([]model.SubjectPerformanceRecord, error) {
	return e.store.ListSubjects(ctx, studentID)
}
