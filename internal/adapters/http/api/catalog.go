package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

type lessonRequest struct {
	ID         string `json:"id" validate:"required,max=64"`
	Title      string `json:"title" validate:"required,max=200"`
	LessonType string `json:"lesson_type" validate:"required,oneof=basic computer internet mobile safety"`
	Active     *bool  `json:"active"`
}

type parentRequest struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=150"`
}

type studentRequest struct {
	ID       string  `json:"id" validate:"required,max=64"`
	Name     string  `json:"name" validate:"required,max=150"`
	ParentID *string `json:"parent_id" validate:"omitempty,max=64"`
}

// handleUpsertLesson handles POST /lessons. Lessons are active unless told otherwise.
func (s *Server) handleUpsertLesson(c *fiber.Ctx) error {
	var req lessonRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	l := model.Lesson{ID: req.ID, Title: req.Title, Type: types.LessonType(req.LessonType), Active: true}
	if req.Active != nil {
		l.Active = *req.Active
	}
	if err := s.deps.UpsertLesson(c.UserContext(), &l); err != nil {
		return err
	}
	return c.JSON(l)
}

// handleUpsertParent handles POST /parents.
func (s *Server) handleUpsertParent(c *fiber.Ctx) error {
	var req parentRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	p := model.Parent{ID: req.ID, Name: req.Name}
	if err := s.deps.UpsertParent(c.UserContext(), &p); err != nil {
		return err
	}
	return c.JSON(p)
}

// handleUpsertStudent handles POST /students.
func (s *Server) handleUpsertStudent(c *fiber.Ctx) error {
	var req studentRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}
	st := model.Student{ID: req.ID, Name: req.Name}
	if req.ParentID != nil && *req.ParentID != "" {
		st.ParentID = req.ParentID
	}
	if err := s.deps.UpsertStudent(c.UserContext(), &st); err != nil {
		return err
	}
	return c.JSON(st)
}
