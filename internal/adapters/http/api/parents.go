package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/types"
)

const defaultNotificationLimit = 50

// settingsRequest is a partial update; absent fields keep their value.
type settingsRequest struct {
	LessonCompletion *string `json:"lesson_completion" validate:"omitempty,oneof=immediate daily weekly never"`
	StreakMilestones *string `json:"streak_milestones" validate:"omitempty,oneof=immediate daily weekly never"`
	InactivityAlerts *string `json:"inactivity_alerts" validate:"omitempty,oneof=immediate daily weekly never"`
	WeeklySummary    *bool   `json:"weekly_summary"`
	MonthlySummary   *bool   `json:"monthly_summary"`
	InApp            *bool   `json:"in_app_notifications"`
	QuietHoursStart  *string `json:"quiet_hours_start" validate:"omitempty,datetime=15:04"`
	QuietHoursEnd    *string `json:"quiet_hours_end" validate:"omitempty,datetime=15:04"`
}

func (s *Server) handleUnread(c *fiber.Ctx) error {
	limit, err := queryLimit(c, defaultNotificationLimit)
	if err != nil {
		return err
	}
	list, err := s.deps.Unread(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	n, err := s.deps.MarkAllRead(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"marked": n})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	settings, err := s.deps.Settings(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(settings)
}

func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	settings, err := s.deps.Settings(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	if req.LessonCompletion != nil {
		settings.LessonCompletion = types.Frequency(*req.LessonCompletion)
	}
	if req.StreakMilestones != nil {
		settings.StreakMilestones = types.Frequency(*req.StreakMilestones)
	}
	if req.InactivityAlerts != nil {
		settings.InactivityAlerts = types.Frequency(*req.InactivityAlerts)
	}
	if req.WeeklySummary != nil {
		settings.WeeklySummary = *req.WeeklySummary
	}
	if req.MonthlySummary != nil {
		settings.MonthlySummary = *req.MonthlySummary
	}
	if req.InApp != nil {
		settings.InApp = *req.InApp
	}
	if req.QuietHoursStart != nil {
		if settings.QuietHoursStart, err = calendar.ParseTimeOfDay(*req.QuietHoursStart); err != nil {
			return badRequest(err)
		}
	}
	if req.QuietHoursEnd != nil {
		if settings.QuietHoursEnd, err = calendar.ParseTimeOfDay(*req.QuietHoursEnd); err != nil {
			return badRequest(err)
		}
	}

	updated, err := s.deps.UpdateSettings(ctx, settings)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}
