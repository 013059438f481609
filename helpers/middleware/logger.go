package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// RequestID tags every request with a UUID, echoed in X-Request-ID and kept
// in Locals("requestid") for log correlation.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Generator: uuid.NewString,
	})
}

// CustomLogger writes one access log line per request, skipping the health
// and metrics endpoints.
func CustomLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/health" || path == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		id, _ := c.Locals("requestid").(string)
		slog.Info("request",
			"method", c.Method(),
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.IP(),
			"request_id", id,
		)
		return err
	}
}
