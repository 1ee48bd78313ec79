package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/metrics"
)

// RequestMetrics records request counts and latency labelled by the matched
// route pattern. Handler errors are rendered here so the recorded status is
// the one sent to the client.
func RequestMetrics() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		if err := ctx.Next(); err != nil {
			if handlerErr := ctx.App().ErrorHandler(ctx, err); handlerErr != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := strconv.Itoa(ctx.Response().StatusCode())
		route := ctx.Route().Path
		method := ctx.Method()
		metrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}
