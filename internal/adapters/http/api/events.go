package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/okian/pragati/internal/domain/model"
)

// progressRequest mirrors the OpenAPI schema for POST /events. Time spent is
// capped at one day per event.
type progressRequest struct {
	EventID          string `json:"event_id" validate:"required,max=128"`
	StudentID        string `json:"student_id" validate:"required,max=64"`
	LessonID         string `json:"lesson_id" validate:"required,max=64"`
	Completed        bool   `json:"completed"`
	Score            *int   `json:"score" validate:"omitempty,min=0,max=100"`
	TimeSpentSeconds *int64 `json:"time_spent_seconds" validate:"omitempty,min=0,max=86400"`
	TS               string `json:"ts" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func (r *progressRequest) event() (model.Event, error) {
	ts, err := time.Parse(time.RFC3339, r.TS)
	if err != nil {
		return model.Event{}, badRequest(err)
	}
	e := model.Event{
		Kind:      model.KindProgress,
		EventID:   r.EventID,
		StudentID: r.StudentID,
		LessonID:  r.LessonID,
		Completed: r.Completed,
		Score:     r.Score,
		TS:        ts,
	}
	if r.TimeSpentSeconds != nil {
		d := time.Duration(*r.TimeSpentSeconds) * time.Second
		e.TimeSpent = &d
	}
	return e, nil
}

// quizRequest mirrors the OpenAPI schema for POST /quiz-attempts.
type quizRequest struct {
	EventID   string `json:"event_id" validate:"required,max=128"`
	StudentID string `json:"student_id" validate:"required,max=64"`
	LessonID  string `json:"lesson_id" validate:"required,max=64"`
	Correct   bool   `json:"correct"`
	Score     *int   `json:"score" validate:"omitempty,min=0,max=100"`
	TS        string `json:"ts" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func (r *quizRequest) event() (model.Event, error) {
	ts, err := time.Parse(time.RFC3339, r.TS)
	if err != nil {
		return model.Event{}, badRequest(err)
	}
	return model.Event{
		Kind:      model.KindQuiz,
		EventID:   r.EventID,
		StudentID: r.StudentID,
		LessonID:  r.LessonID,
		Correct:   r.Correct,
		Score:     r.Score,
		TS:        ts,
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// handlePostEvent handles POST /events.
func (s *Server) handlePostEvent(c *fiber.Ctx) error {
	var req progressRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	e, err := req.event()
	if err != nil {
		return err
	}
	return s.submit(c, e)
}

// handlePostQuizAttempt handles POST /quiz-attempts.
func (s *Server) handlePostQuizAttempt(c *fiber.Ctx) error {
	var req quizRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	e, err := req.event()
	if err != nil {
		return err
	}
	return s.submit(c, e)
}

// submit answers 202 for a queued event and 200 for a replayed one. Queue
// refusals surface as 429 through the error handler.
func (s *Server) submit(c *fiber.Ctx, e model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	duplicate, err := s.deps.Submit(c.UserContext(), e)
	if err != nil {
		return err
	}
	if duplicate {
		return c.Status(fiber.StatusOK).JSON(ackResponse{Status: "accepted", Duplicate: true})
	}
	return c.Status(fiber.StatusAccepted).JSON(ackResponse{Status: "accepted"})
}
