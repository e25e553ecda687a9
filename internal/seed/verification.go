package seed

import (
	"context"
	"fmt"
	"time"
)

type streakView struct {
	CurrentStreak int    `json:"current_streak"`
	Today         string `json:"today"`
}

type weeklyView struct {
	WeekStart        string  `json:"week_start"`
	LessonsCompleted int     `json:"lessons_completed"`
	AverageScore     float64 `json:"average_score"`
	ActiveDays       int     `json:"active_days"`
}

type monthlyView struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	LessonsCompleted int     `json:"lessons_completed"`
	AverageScore     float64 `json:"average_score"`
	ActiveDays       int     `json:"active_days"`
	MaxStreak        int     `json:"max_streak"`
}

// verify reads back every student's aggregates and lists what does not add up.
func verify(ctx context.Context, c *Client, p *Plan) ([]string, error) {
	var violations []string
	for _, st := range p.Students {
		vs, err := verifyStudent(ctx, c, st.ID, p.Completions[st.ID])
		if err != nil {
			return violations, err
		}
		violations = append(violations, vs...)
	}
	return violations, nil
}

func verifyStudent(ctx context.Context, c *Client, id string, completions int) ([]string, error) {
	var (
		out     []string
		streak  streakView
		weeks   []weeklyView
		months  []monthlyView
		bad     = func(format string, args ...interface{}) { out = append(out, id+": "+fmt.Sprintf(format, args...)) }
		base    = "/students/" + id
		history = "?limit=52"
	)
	if err := c.GetJSON(ctx, base+"/streak", &streak); err != nil {
		return nil, err
	}
	if err := c.GetJSON(ctx, base+"/weekly"+history, &weeks); err != nil {
		return nil, err
	}
	if err := c.GetJSON(ctx, base+"/monthly"+history, &months); err != nil {
		return nil, err
	}

	if streak.CurrentStreak < 0 {
		bad("negative streak %d", streak.CurrentStreak)
	}
	for _, w := range weeks {
		day, err := time.Parse(time.DateOnly, w.WeekStart)
		if err != nil {
			bad("week_start %q is not a date", w.WeekStart)
		} else if day.Weekday() != time.Monday {
			bad("week_start %s is a %s", w.WeekStart, day.Weekday())
		}
		if w.ActiveDays < 0 || w.ActiveDays > 7 {
			bad("week %s has %d active days", w.WeekStart, w.ActiveDays)
		}
		if w.LessonsCompleted > completions {
			bad("week %s has %d lessons, only %d completions sent", w.WeekStart, w.LessonsCompleted, completions)
		}
		if w.AverageScore < 0 || w.AverageScore > 100 {
			bad("week %s average score %.1f", w.WeekStart, w.AverageScore)
		}
	}
	for _, m := range months {
		if m.Month < 1 || m.Month > 12 {
			bad("month %d/%d out of range", m.Year, m.Month)
		}
		if m.ActiveDays < 0 || m.ActiveDays > 31 {
			bad("month %d/%02d has %d active days", m.Year, m.Month, m.ActiveDays)
		}
		if m.LessonsCompleted > completions {
			bad("month %d/%02d has %d lessons, only %d completions sent", m.Year, m.Month, m.LessonsCompleted, completions)
		}
		if m.MaxStreak < 0 {
			bad("month %d/%02d max streak %d", m.Year, m.Month, m.MaxStreak)
		}
	}
	return out, nil
}
