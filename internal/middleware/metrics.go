package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"kumpul/internal/metrics"
)

// Metrics records request count and latency per route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		method := c.Method()
		metrics.RequestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())

		return err
	}
}
