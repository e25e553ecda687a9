// Package rollup computes window statistics from progress records. It is pure:
// callers fetch the rows for a window and persist the result.
package rollup

import (
	"math"
	"time"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
)

// Stats are the four figures shared by weekly, monthly and subject aggregates.
type Stats struct {
	LessonsCompleted int
	TotalTimeSpent   time.Duration
	AverageScore     float64
	ActiveDays       int
}

// Summarize computes Stats over records. Missing scores and durations are
// skipped; with no scores the average is 0. Active days are the distinct
// calendar days, in loc, on which a record was started.
func Summarize(records []model.ProgressRecord, loc *time.Location) Stats {
	var (
		stats    Stats
		scoreSum int
		scored   int
		days     = make(map[calendar.Date]struct{}, len(records))
	)
	for i := range records {
		r := &records[i]
		if r.Completed {
			stats.LessonsCompleted++
		}
		if r.TimeSpent != nil {
			stats.TotalTimeSpent += *r.TimeSpent
		}
		if r.Score != nil {
			scoreSum += *r.Score
			scored++
		}
		days[calendar.DateOf(r.StartedAt, loc)] = struct{}{}
	}
	if scored > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scored)
	}
	stats.ActiveDays = len(days)
	return stats
}

// MaxStreak returns the highest streak count, or 0 for no records.
func MaxStreak(records []model.StreakRecord) int {
	best := 0
	for i := range records {
		if records[i].StreakCount > best {
			best = records[i].StreakCount
		}
	}
	return best
}

// Hours converts d to fractional hours.
func Hours(d time.Duration) float64 { return d.Hours() }

// Round1 rounds to one decimal place, the precision used in summaries.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }
