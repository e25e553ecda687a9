// Package ingest applies learning events: it updates the progress record,
// writes the timeline, tells the parent and refreshes the student's
// aggregates, in that order.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pragati/internal/adapters/repository"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/streak"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/internal/notify"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// Store is the persistence the processor writes through directly.
type Store interface {
	ApplyProgress(ctx context.Context, ev model.Event) (repository.ProgressChange, error)
	GetLesson(ctx context.Context, id string) (model.Lesson, error)
	EnsureStudent(ctx context.Context, id string) error
}

// Analytics keeps the derived statistics current.
type Analytics interface {
	LogActivity(ctx context.Context, studentID string, activityType types.ActivityType, lessonID *string, description string) error
	UpdateStreak(ctx context.Context, studentID string, lessonCompletedToday bool) (model.StreakRecord, error)
	CurrentStreak(ctx context.Context, studentID string) (int, error)
	UpdateWeekly(ctx context.Context, studentID string, weekStart *calendar.Date) (model.WeeklyRecord, error)
	UpdateMonthly(ctx context.Context, studentID string, year, month int) (model.MonthlyRecord, error)
	UpdateSubjectPerformance(ctx context.Context, studentID string, lessonType *types.LessonType) error
}

// Notifier tells parents about their child's progress.
type Notifier interface {
	LessonCompleted(ctx context.Context, childID string, lesson model.Lesson, score *int, spent *time.Duration) (*model.ParentNotification, error)
	QuizPassed(ctx context.Context, childID string, lesson model.Lesson, score *int) (*model.ParentNotification, error)
	StreakMilestone(ctx context.Context, childID string, count int) (*model.ParentNotification, error)
}

// Outcome reports what one progress event changed.
type Outcome struct {
	Record model.ProgressRecord
	// Started is true when the event created the progress record.
	Started bool
	// Completed is true when the event completed the lesson for the first time.
	Completed bool
	// Streak is the current streak after a completion, 0 otherwise.
	Streak    int
	Milestone bool
}

// Processor applies events.
type Processor struct {
	store      Store
	analytics  Analytics
	notifier   Notifier
	milestones []int
	log        logger.Logger
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithMilestones sets the streak lengths that trigger a milestone.
func WithMilestones(m []int) Option {
	return func(p *Processor) {
		if len(m) > 0 {
			p.milestones = append([]int(nil), m...)
		}
	}
}

// WithLogger sets the processor logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a Processor.
func New(store Store, analytics Analytics, notifier Notifier, opts ...Option) *Processor {
	p := &Processor{
		store:      store,
		analytics:  analytics,
		notifier:   notifier,
		milestones: streak.DefaultMilestones(),
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle applies ev according to its kind.
func (p *Processor) Handle(ctx context.Context, ev model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	switch ev.Kind {
	case model.KindProgress:
		_, err := p.Apply(ctx, ev)
		return err
	case model.KindQuiz:
		return p.ApplyQuiz(ctx, ev)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}
}

// Apply applies one progress event.
func (p *Processor) Apply(ctx context.Context, ev model.Event) (Outcome, error) { //nolint:gocritic // hugeParam: events travel by value
	change, err := p.store.ApplyProgress(ctx, ev)
	if err != nil {
		return Outcome{}, fmt.Errorf("apply progress %s/%s: %w", ev.StudentID, ev.LessonID, err)
	}
	out := Outcome{Record: change.Record, Started: change.Created, Completed: change.Completed}
	lesson := change.Lesson
	lessonID := lesson.ID

	if change.Created {
		if err := p.analytics.LogActivity(ctx, ev.StudentID, types.ActivityLessonStart, &lessonID,
			"Started lesson: "+lesson.Title); err != nil {
			return out, err
		}
	}

	if change.Completed {
		if err := p.analytics.LogActivity(ctx, ev.StudentID, types.ActivityLessonComplete, &lessonID,
			"Completed lesson: "+lesson.Title); err != nil {
			return out, err
		}
		_, err := p.notifier.LessonCompleted(ctx, ev.StudentID, lesson, change.Record.Score, change.Record.TimeSpent)
		p.notified(ctx, ev.StudentID, types.NotifyLessonComplete, err)

		if _, err := p.analytics.UpdateStreak(ctx, ev.StudentID, true); err != nil {
			return out, err
		}
		if out.Streak, err = p.analytics.CurrentStreak(ctx, ev.StudentID); err != nil {
			return out, err
		}
		if streak.IsMilestone(out.Streak, p.milestones) {
			out.Milestone = true
			metrics.RecordStreakMilestone()
			if err := p.analytics.LogActivity(ctx, ev.StudentID, types.ActivityStreakMilestone, nil,
				fmt.Sprintf("Achieved %d day learning streak!", out.Streak)); err != nil {
				return out, err
			}
			_, err := p.notifier.StreakMilestone(ctx, ev.StudentID, out.Streak)
			p.notified(ctx, ev.StudentID, types.NotifyStreakMilestone, err)
		}
	}

	if err := p.refresh(ctx, ev.StudentID, lesson.Type); err != nil {
		return out, err
	}
	p.log.Debug(ctx, "progress applied",
		logger.String("event_id", ev.EventID),
		logger.String("student_id", ev.StudentID),
		logger.String("lesson_id", lessonID),
		logger.Bool("started", out.Started),
		logger.Bool("completed", out.Completed))
	return out, nil
}

// ApplyQuiz applies one quiz attempt.
func (p *Processor) ApplyQuiz(ctx context.Context, ev model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	lesson, err := p.store.GetLesson(ctx, ev.LessonID)
	if err != nil {
		return fmt.Errorf("quiz lesson %s: %w", ev.LessonID, err)
	}
	if err := p.store.EnsureStudent(ctx, ev.StudentID); err != nil {
		return fmt.Errorf("quiz student %s: %w", ev.StudentID, err)
	}
	lessonID := lesson.ID

	if err := p.analytics.LogActivity(ctx, ev.StudentID, types.ActivityQuizAttempt, &lessonID,
		"Attempted quiz for: "+lesson.Title); err != nil {
		return err
	}
	if ev.Correct {
		if err := p.analytics.LogActivity(ctx, ev.StudentID, types.ActivityQuizPassed, &lessonID,
			"Passed quiz for: "+lesson.Title); err != nil {
			return err
		}
		_, err := p.notifier.QuizPassed(ctx, ev.StudentID, lesson, ev.Score)
		p.notified(ctx, ev.StudentID, types.NotifyQuizPassed, err)
	}
	return p.refresh(ctx, ev.StudentID, lesson.Type)
}

// refresh recomputes this week, this month and the lesson's subject.
func (p *Processor) refresh(ctx context.Context, studentID string, lt types.LessonType) error {
	if _, err := p.analytics.UpdateWeekly(ctx, studentID, nil); err != nil {
		return err
	}
	if _, err := p.analytics.UpdateMonthly(ctx, studentID, 0, 0); err != nil {
		return err
	}
	return p.analytics.UpdateSubjectPerformance(ctx, studentID, &lt)
}

// notified logs a notification failure. Notifications never fail an event.
func (p *Processor) notified(ctx context.Context, studentID string, t types.NotificationType, err error) {
	switch {
	case err == nil:
	case notify.Skipped(err):
		p.log.Debug(ctx, "notification skipped",
			logger.String("student_id", studentID),
			logger.String("type", string(t)),
			logger.String("reason", err.Error()))
	default:
		metrics.RecordError("notify", err)
		p.log.Warn(ctx, "notification failed",
			logger.String("student_id", studentID),
			logger.String("type", string(t)),
			logger.Error(err))
	}
}
