package analytics

import (
	"context"
	"time"

	"github.com/okian/pragati/pkg/logger"
)

// RefreshAll recomputes the current week, the current month and every subject,
// then, if the student started any lesson today, counts a completion on
// today's streak. Steps run in order and stop at the first error; steps that
// already succeeded stay applied.
func (e *Engine) RefreshAll(ctx context.Context, studentID string) (err error) {
	defer observe("all", time.Now(), &err)

	if _, err := e.UpdateWeekly(ctx, studentID, nil); err != nil {
		return err
	}
	if _, err := e.UpdateMonthly(ctx, studentID, 0, 0); err != nil {
		return err
	}
	if err := e.UpdateSubjectPerformance(ctx, studentID, nil); err != nil {
		return err
	}

	from, to := e.Today().Bounds(e.loc)
	active, err := e.store.HasProgressStartedBetween(ctx, studentID, from, to)
	if err != nil {
		return err
	}
	if active {
		if _, err := e.UpdateStreak(ctx, studentID, true); err != nil {
			return err
		}
	}
	e.log.Debug(ctx, "analytics refreshed",
		logger.String("student_id", studentID),
		logger.Bool("active_today", active))
	return nil
}
