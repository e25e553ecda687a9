package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// requestContext carries the request id into the handler context and bounds
// it with the request timeout.
func (s *Server) requestContext(c *fiber.Ctx) error {
	id, _ := c.Locals(requestIDKey).(string)
	ctx, cancel := context.WithTimeout(logger.WithRequestID(c.UserContext(), id), s.timeout)
	defer cancel()
	c.SetUserContext(ctx)
	return c.Next()
}

// observe records Prometheus metrics and a debug access log for each request.
// The endpoint label is the route pattern, not the raw path. Label values
// outlive the request, so the method is copied out of fiber's buffer.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	elapsed := time.Since(start)

	status := c.Response().StatusCode()
	if err != nil {
		status, _ = classify(err)
	}
	endpoint := utils.CopyString(c.Route().Path)
	method := utils.CopyString(c.Method())
	code := strconv.Itoa(status)
	metrics.RecordHTTPRequest(endpoint, method, code)
	metrics.RecordHTTPRequestDuration(endpoint, method, code, float64(elapsed.Microseconds())/1000)

	s.logger.Debug(c.UserContext(), "http request",
		logger.String("method", method),
		logger.String("path", c.Path()),
		logger.Int("status", status),
		logger.Duration("duration", elapsed))
	return err
}
