// Package api exposes the analytics service over HTTP with fiber.
package api

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
)

// Ingest accepts learning events for asynchronous processing.
type Ingest interface {
	// Submit reports duplicate=true for an event id seen before.
	Submit(ctx context.Context, e model.Event) (bool, error)
}

// Catalog registers the platform records events refer to.
type Catalog interface {
	UpsertLesson(ctx context.Context, l *model.Lesson) error
	UpsertParent(ctx context.Context, p *model.Parent) error
	UpsertStudent(ctx context.Context, s *model.Student) error
}

// Reports serves a student's aggregates and dashboard series.
type Reports interface {
	Today() calendar.Date
	CurrentStreak(ctx context.Context, studentID string) (int, error)
	WeeklyHistory(ctx context.Context, studentID string, limit int) ([]model.WeeklyRecord, error)
	MonthlyHistory(ctx context.Context, studentID string, limit int) ([]model.MonthlyRecord, error)
	Subjects(ctx context.Context, studentID string) ([]model.SubjectPerformanceRecord, error)
	Activities(ctx context.Context, studentID string, limit int) ([]model.ActivityLogEntry, error)
	Calendar(ctx context.Context, studentID string, year, month int) (types.Calendar, error)
	ProgressChart(ctx context.Context, studentID string, period types.ChartPeriod) (types.ProgressChart, error)
	SubjectChart(ctx context.Context, studentID string) (types.SubjectChart, error)
	Refresh(ctx context.Context, studentID string) error
}

// Notifications serves a parent's in-app inbox and settings.
type Notifications interface {
	Unread(ctx context.Context, parentID string, limit int) ([]model.ParentNotification, error)
	MarkAllRead(ctx context.Context, parentID string) (int64, error)
	Settings(ctx context.Context, parentID string) (model.NotificationSettings, error)
	UpdateSettings(ctx context.Context, s model.NotificationSettings) (model.NotificationSettings, error)
}

// StatsProvider reports runtime state for /stats and /readyz.
type StatsProvider interface {
	GetStats() map[string]interface{}
	Ping(ctx context.Context) error
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Ingest
	Catalog
	Reports
	Notifications
	StatsProvider
}

const (
	defaultRequestTimeout = 10 * time.Second
	requestIDKey          = "request_id"
)

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	validate *validator.Validate
	logger   logger.Logger
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestTimeout bounds the context handed to every handler.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates an API server over deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		validate: validator.New(),
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// App builds a fiber application with the middleware chain and every route.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "pragati",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(s.requestContext)
	app.Use(s.observe)
	s.Register(app)
	return app
}

// Register attaches all business routes to router.
func (s *Server) Register(router fiber.Router) {
	router.Get("/healthz", s.handleHealth())
	router.Get("/readyz", s.handleReady)
	router.Get("/stats", s.handleStats)

	router.Post("/events", s.handlePostEvent)
	router.Post("/quiz-attempts", s.handlePostQuizAttempt)

	router.Post("/lessons", s.handleUpsertLesson)
	router.Post("/parents", s.handleUpsertParent)
	router.Post("/students", s.handleUpsertStudent)

	students := router.Group("/students/:id")
	students.Get("/streak", s.handleStreak)
	students.Get("/weekly", s.handleWeekly)
	students.Get("/monthly", s.handleMonthly)
	students.Get("/subjects", s.handleSubjects)
	students.Get("/activities", s.handleActivities)
	students.Get("/calendar", s.handleCalendar)
	students.Get("/charts", s.handleProgressChart)
	students.Get("/charts/subjects", s.handleSubjectChart)
	students.Post("/refresh", s.handleRefresh)

	parents := router.Group("/parents/:id")
	parents.Get("/notifications", s.handleUnread)
	parents.Post("/notifications/read", s.handleMarkRead)
	parents.Get("/settings", s.handleGetSettings)
	parents.Put("/settings", s.handlePutSettings)
}

// parse decodes the JSON body into req and validates its tags.
func (s *Server) parse(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	if err := s.validate.Struct(req); err != nil {
		return badRequest(err)
	}
	return nil
}
