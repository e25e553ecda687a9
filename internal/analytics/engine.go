// Package analytics keeps a student's derived learning statistics in step with
// their progress records: the day-streak chain, weekly, monthly and per-subject
// aggregates, and the activity timeline. Every aggregate is a full
// recomputation from progress records, so refreshing twice is harmless.
package analytics

import (
	"context"
	"time"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// Store is the persistence the engine needs.
type Store interface {
	// Streaks
	GetOrCreateStreak(ctx context.Context, studentID string, day calendar.Date) (model.StreakRecord, bool, error)
	IncrementStreakLessons(ctx context.Context, id uint64) (int, error)
	SaveStreakTotals(ctx context.Context, id uint64, timeSpent time.Duration, streakCount *int) error
	FindStreak(ctx context.Context, studentID string, day calendar.Date) (*model.StreakRecord, error)
	LatestStreak(ctx context.Context, studentID string, day calendar.Date) (*model.StreakRecord, error)
	StreaksBetween(ctx context.Context, studentID string, from, to calendar.Date) ([]model.StreakRecord, error)

	// Progress
	ProgressStartedBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.ProgressRecord, error)
	HasProgressStartedBetween(ctx context.Context, studentID string, from, to time.Time) (bool, error)
	SumTimeStartedBetween(ctx context.Context, studentID string, from, to time.Time) (time.Duration, error)
	ProgressForLessonType(ctx context.Context, studentID string, lessonType types.LessonType) ([]model.ProgressRecord, error)
	CountActiveLessons(ctx context.Context, lessonType types.LessonType) (int, error)
	LessonTitles(ctx context.Context, ids []string) (map[string]string, error)

	// Aggregates
	UpsertWeekly(ctx context.Context, rec *model.WeeklyRecord) error
	UpsertMonthly(ctx context.Context, rec *model.MonthlyRecord) error
	UpsertSubject(ctx context.Context, rec *model.SubjectPerformanceRecord) error
	WeeklySince(ctx context.Context, studentID string, from calendar.Date) ([]model.WeeklyRecord, error)
	ListWeekly(ctx context.Context, studentID string, limit int) ([]model.WeeklyRecord, error)
	LatestMonthly(ctx context.Context, studentID string, limit int) ([]model.MonthlyRecord, error)
	ListSubjects(ctx context.Context, studentID string) ([]model.SubjectPerformanceRecord, error)

	// Activity log
	AppendActivity(ctx context.Context, e *model.ActivityLogEntry) error
	Activities(ctx context.Context, studentID string, limit int) ([]model.ActivityLogEntry, error)
	ActivitiesBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.ActivityLogEntry, error)
}

// Engine computes and persists analytics. It is safe for concurrent use; the
// caller keeps events of one student in order.
type Engine struct {
	store Store
	clock calendar.Clock
	loc   *time.Location
	log   logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock sets the source of "now".
func WithClock(c calendar.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLocation sets the zone calendar days are cut in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Engine over store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		clock: calendar.SystemClock,
		loc:   time.UTC,
		log:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current instant.
func (e *Engine) Now() time.Time { return e.clock() }

// Today returns the current calendar day in the engine's zone.
func (e *Engine) Today() calendar.Date { return calendar.DateOf(e.clock(), e.loc) }

// Location returns the zone calendar days are cut in.
func (e *Engine) Location() *time.Location { return e.loc }

func observe(aggregate string, start time.Time, err *error) {
	metrics.RecordRefresh(aggregate, float64(time.Since(start).Microseconds())/1000, *err)
}
