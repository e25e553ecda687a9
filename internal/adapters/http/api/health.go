package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/okian/pragati/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleHealth serves the Prometheus exposition of the service registry.
func (s *Server) handleHealth() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// handleReady reports whether the database answers.
func (s *Server) handleReady(c *fiber.Ctx) error {
	if err := s.deps.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Code: "unavailable", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
