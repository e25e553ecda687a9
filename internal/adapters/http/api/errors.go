package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/okian/pragati/internal/adapters/repository"
	"github.com/okian/pragati/internal/analytics"
	service "github.com/okian/pragati/internal/app"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/internal/notify"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// ErrBadRequest marks request input the handlers rejected.
var ErrBadRequest = errors.New("bad request")

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}

// classify maps err onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		return fe.Code, codeFor(fe.Code)
	case errors.As(err, &ve),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, types.ErrUnknownValue),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, analytics.ErrInvalidActivityType),
		errors.Is(err, analytics.ErrInvalidLessonType),
		errors.Is(err, analytics.ErrInvalidMonth),
		errors.Is(err, analytics.ErrInvalidPeriod),
		errors.Is(err, notify.ErrInvalidSettings):
		return fiber.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrBackpressure):
		return fiber.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return fiber.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "timeout"
	default:
		return fiber.StatusInternalServerError, "internal"
	}
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return "bad_request"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusTooManyRequests:
		return "backpressure"
	case fiber.StatusServiceUnavailable:
		return "unavailable"
	default:
		if status >= fiber.StatusInternalServerError {
			return "internal"
		}
		return "error"
	}
}

// handleError is the fiber error handler; every failure leaves as errorResponse.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed",
			logger.String("method", c.Method()),
			logger.String("path", c.Path()),
			logger.Error(err))
		metrics.RecordError("http", err)
		if status == fiber.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	return c.Status(status).JSON(errorResponse{Code: code, Message: msg})
}
