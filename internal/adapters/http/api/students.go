package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

const (
	defaultHistoryLimit  = 12
	defaultActivityLimit = 20
)

type streakResponse struct {
	StudentID     string        `json:"student_id"`
	CurrentStreak int           `json:"current_streak"`
	Today         calendar.Date `json:"today"`
}

type subjectResponse struct {
	model.SubjectPerformanceRecord
	Label                string  `json:"label"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// queryLimit reads ?limit=, falling back to def; anything below 1 is rejected.
func queryLimit(c *fiber.Ctx, def int) (int, error) {
	limit := c.QueryInt("limit", def)
	if limit < 1 {
		return 0, badRequest(fmt.Errorf("limit must be positive, got %q", c.Query("limit")))
	}
	return limit, nil
}

func (s *Server) handleStreak(c *fiber.Ctx) error {
	id := c.Params("id")
	n, err := s.deps.CurrentStreak(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(streakResponse{StudentID: id, CurrentStreak: n, Today: s.deps.Today()})
}

func (s *Server) handleWeekly(c *fiber.Ctx) error {
	limit, err := queryLimit(c, defaultHistoryLimit)
	if err != nil {
		return err
	}
	recs, err := s.deps.WeeklyHistory(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(recs)
}

func (s *Server) handleMonthly(c *fiber.Ctx) error {
	limit, err := queryLimit(c, defaultHistoryLimit)
	if err != nil {
		return err
	}
	recs, err := s.deps.MonthlyHistory(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(recs)
}

func (s *Server) handleSubjects(c *fiber.Ctx) error {
	recs, err := s.deps.Subjects(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]subjectResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, subjectResponse{
			SubjectPerformanceRecord: r,
			Label:                    r.LessonType.Label(),
			CompletionPercentage:     r.CompletionPercentage(),
		})
	}
	return c.JSON(out)
}

func (s *Server) handleActivities(c *fiber.Ctx) error {
	limit, err := queryLimit(c, defaultActivityLimit)
	if err != nil {
		return err
	}
	entries, err := s.deps.Activities(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// handleCalendar defaults year and month to the current local month.
func (s *Server) handleCalendar(c *fiber.Ctx) error {
	today := s.deps.Today()
	year := c.QueryInt("year", today.Year)
	month := c.QueryInt("month", int(today.Month))
	cal, err := s.deps.Calendar(c.UserContext(), c.Params("id"), year, month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"year": year, "month": month, "days": cal})
}

func (s *Server) handleProgressChart(c *fiber.Ctx) error {
	period, err := types.ParseChartPeriod(c.Query("period"))
	if err != nil {
		return err
	}
	chart, err := s.deps.ProgressChart(c.UserContext(), c.Params("id"), period)
	if err != nil {
		return err
	}
	return c.JSON(chart)
}

func (s *Server) handleSubjectChart(c *fiber.Ctx) error {
	chart, err := s.deps.SubjectChart(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(chart)
}

// handleRefresh recomputes every aggregate of the student before answering.
func (s *Server) handleRefresh(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.deps.Refresh(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "refreshed", "student_id": id})
}
