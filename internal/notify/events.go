package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/rollup"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
)

// DefaultQuizScore is reported when a passed quiz carries no score.
const DefaultQuizScore = 85

// LessonCompleted tells the parent a lesson was finished.
func (n *Notifier) LessonCompleted(ctx context.Context, childID string, lesson model.Lesson, score *int, spent *time.Duration) (*model.ParentNotification, error) {
	vars := map[string]interface{}{
		"score":       nil,
		"time_spent":  nil,
		"lesson_type": lesson.Type.Label(),
	}
	if score != nil {
		vars["score"] = *score
	}
	if spent != nil {
		vars["time_spent"] = spent.String()
	}
	return n.Notify(ctx, childID, types.NotifyLessonComplete, &lesson, vars)
}

// QuizPassed tells the parent a quiz was passed.
func (n *Notifier) QuizPassed(ctx context.Context, childID string, lesson model.Lesson, score *int) (*model.ParentNotification, error) {
	s := DefaultQuizScore
	if score != nil {
		s = *score
	}
	return n.Notify(ctx, childID, types.NotifyQuizPassed, &lesson, map[string]interface{}{"score": s})
}

// StreakMilestone tells the parent the child reached a streak of count days.
func (n *Notifier) StreakMilestone(ctx context.Context, childID string, count int) (*model.ParentNotification, error) {
	return n.Notify(ctx, childID, types.NotifyStreakMilestone, nil, map[string]interface{}{"streak_count": count})
}

// Inactive tells the parent the child has not been active. daysInactive is a
// whole number of days, or "many" when the child never started a lesson.
func (n *Notifier) Inactive(ctx context.Context, childID, daysInactive string) (*model.ParentNotification, error) {
	return n.Notify(ctx, childID, types.NotifyInactivity, nil, map[string]interface{}{"days_inactive": daysInactive})
}

// WeeklySummary reports this week's lessons, hours and current streak.
func (n *Notifier) WeeklySummary(ctx context.Context, childID string) (*model.ParentNotification, error) {
	week, err := n.stats.UpdateWeekly(ctx, childID, nil)
	if err != nil {
		return nil, fmt.Errorf("weekly summary for %s: %w", childID, err)
	}
	current, err := n.stats.CurrentStreak(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("weekly summary for %s: %w", childID, err)
	}
	return n.Notify(ctx, childID, types.NotifyWeeklySummary, nil, map[string]interface{}{
		"total_lessons":    week.LessonsCompleted,
		"total_time_hours": rollup.Round1(rollup.Hours(week.TotalTimeSpent)),
		"current_streak":   current,
	})
}

// MonthlySummary reports this month's lessons, hours and longest streak.
func (n *Notifier) MonthlySummary(ctx context.Context, childID string) (*model.ParentNotification, error) {
	month, err := n.stats.UpdateMonthly(ctx, childID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("monthly summary for %s: %w", childID, err)
	}
	return n.Notify(ctx, childID, types.NotifyMonthlySummary, nil, map[string]interface{}{
		"total_lessons":    month.LessonsCompleted,
		"total_time_hours": rollup.Round1(rollup.Hours(month.TotalTimeSpent)),
		"max_streak":       month.MaxStreak,
		"month_name":       fmt.Sprintf("%s %d", time.Month(month.Month), month.Year),
	})
}

// CheckInactivity alerts the parent of every linked child with no lesson
// access in the last days days. It keeps going past individual failures and
// returns how many alerts were stored along with the joined errors.
func (n *Notifier) CheckInactivity(ctx context.Context, days int) (int, error) {
	children, err := n.store.StudentsWithParent(ctx)
	if err != nil {
		return 0, err
	}
	now := n.clock()
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var (
		sent int
		errs []error
	)
	for _, child := range children {
		last, err := n.store.LastAccess(ctx, child.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("last access of %s: %w", child.ID, err))
			continue
		}
		if last != nil && !last.Before(cutoff) {
			continue
		}
		inactive := "many"
		if last != nil {
			inactive = strconv.Itoa(int(now.Sub(*last).Hours() / 24))
		}
		if _, err := n.Inactive(ctx, child.ID, inactive); err != nil {
			if !Skipped(err) {
				errs = append(errs, err)
			}
			continue
		}
		sent++
	}
	n.log.Info(ctx, "inactivity check done",
		logger.Int("days", days),
		logger.Int("children", len(children)),
		logger.Int("sent", sent))
	return sent, errors.Join(errs...)
}

// SendSummaries sends a weekly or monthly summary about every linked child.
func (n *Notifier) SendSummaries(ctx context.Context, t types.NotificationType) (int, error) {
	var send func(context.Context, string) (*model.ParentNotification, error)
	switch t {
	case types.NotifyWeeklySummary:
		send = n.WeeklySummary
	case types.NotifyMonthlySummary:
		send = n.MonthlySummary
	default:
		return 0, fmt.Errorf("%w: %q is not a summary", ErrInvalidType, t)
	}

	children, err := n.store.StudentsWithParent(ctx)
	if err != nil {
		return 0, err
	}
	var (
		sent int
		errs []error
	)
	for _, child := range children {
		if _, err := send(ctx, child.ID); err != nil {
			if !Skipped(err) {
				errs = append(errs, err)
			}
			continue
		}
		sent++
	}
	n.log.Info(ctx, "summaries sent",
		logger.String("type", string(t)),
		logger.Int("children", len(children)),
		logger.Int("sent", sent))
	return sent, errors.Join(errs...)
}
