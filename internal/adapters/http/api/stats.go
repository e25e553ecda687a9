package api

import "github.com/gofiber/fiber/v2"

// handleStats handles GET /stats.
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.deps.GetStats())
}
