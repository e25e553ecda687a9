// Package streak holds the day-streak rules: how a new day continues the
// chain, and how a stored streak decays when read.
package streak

import (
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
)

// graceDays is how old the latest record may be and still count as current.
const graceDays = 1

// ShouldRecount reports whether today's streak_count must be recomputed: only
// when the record was just created or this is the first completion of the day.
func ShouldRecount(created bool, lessonsCompleted int) bool {
	return created || lessonsCompleted == 1
}

// Continue returns today's streak count given yesterday's record, nil when
// there is none.
func Continue(yesterday *model.StreakRecord) int {
	if yesterday == nil {
		return 1
	}
	return yesterday.StreakCount + 1
}

// Current projects the latest record onto today. A record older than
// yesterday means the streak is broken and reads as 0; the row is untouched.
func Current(latest *model.StreakRecord, today calendar.Date) int {
	if latest == nil {
		return 0
	}
	if today.DaysSince(latest.Date) > graceDays {
		return 0
	}
	return latest.StreakCount
}

// IsMilestone reports whether n is one of milestones.
func IsMilestone(n int, milestones []int) bool {
	for _, m := range milestones {
		if n == m {
			return true
		}
	}
	return false
}

// DefaultMilestones are the streak lengths parents hear about.
func DefaultMilestones() []int { return []int{7, 14, 30, 60} }
