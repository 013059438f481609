package routes

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/like-mike/relai-chat/metrics"
)

// PrometheusMiddleware records request counts and latency keyed by the
// matched route template, so SPA paths do not explode label cardinality.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start).Seconds()

		route := c.Route().Path
		code := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			} else {
				code = fiber.StatusInternalServerError
			}
			metrics.HttpErrorsTotal.WithLabelValues(route).Inc()
		}

		metrics.HttpRequestsTotal.WithLabelValues(strconv.Itoa(code), route).Inc()
		metrics.HttpRequestDurationSeconds.WithLabelValues(route).Observe(latency)
		return err
	}
}
