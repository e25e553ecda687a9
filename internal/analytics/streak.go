package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/streak"
	"github.com/okian/pragati/pkg/logger"
)

// UpdateStreak brings today's streak record up to date. With
// lessonCompletedToday it also counts one more completed lesson. The streak
// count is only recomputed when the record is new or this is the day's first
// completion, so later completions on the same day never double count.
func (e *Engine) UpdateStreak(ctx context.Context, studentID string, lessonCompletedToday bool) (rec model.StreakRecord, err error) {
	defer observe("streak", time.Now(), &err)

	today := e.Today()
	rec, created, err := e.store.GetOrCreateStreak(ctx, studentID, today)
	if err != nil {
		return model.StreakRecord{}, fmt.Errorf("streak for %s: %w", studentID, err)
	}

	if lessonCompletedToday {
		n, err := e.store.IncrementStreakLessons(ctx, rec.ID)
		if err != nil {
			return model.StreakRecord{}, fmt.Errorf("count lesson for %s: %w", studentID, err)
		}
		rec.LessonsCompleted = n
	}

	from, to := today.Bounds(e.loc)
	spent, err := e.store.SumTimeStartedBetween(ctx, studentID, from, to)
	if err != nil {
		return model.StreakRecord{}, fmt.Errorf("time spent for %s: %w", studentID, err)
	}
	rec.TimeSpent = spent

	var count *int
	if streak.ShouldRecount(created, rec.LessonsCompleted) {
		yesterday, err := e.store.FindStreak(ctx, studentID, today.AddDays(-1))
		if err != nil {
			return model.StreakRecord{}, fmt.Errorf("yesterday's streak for %s: %w", studentID, err)
		}
		n := streak.Continue(yesterday)
		rec.StreakCount = n
		count = &n
	}

	if err := e.store.SaveStreakTotals(ctx, rec.ID, rec.TimeSpent, count); err != nil {
		return model.StreakRecord{}, fmt.Errorf("save streak for %s: %w", studentID, err)
	}
	e.log.Debug(ctx, "streak updated",
		logger.String("student_id", studentID),
		logger.String("date", today.String()),
		logger.Int("streak", rec.StreakCount),
		logger.Int("lessons", rec.LessonsCompleted))
	return rec, nil
}

// CurrentStreak returns the student's live streak: the latest record's count
// if it is dated today or yesterday, otherwise 0. Nothing is written.
func (e *Engine) CurrentStreak(ctx context.Context, studentID string) (int, error) {
	today := e.Today()
	latest, err := e.store.LatestStreak(ctx, studentID, today)
	if err != nil {
		return 0, fmt.Errorf("latest streak for %s: %w", studentID, err)
	}
	return streak.Current(latest, today), nil
}
