package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"userapi/internal/logger"
)

// Logger logs one "http_request" entry per request and stores a request-scoped logger in the
// user context, where handlers read it with logger.Ctx.
// Entry fields:
// - request_id (taken from context locals set by RequestID middleware)
// - trace_id (when a span is active)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger(base *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		l := base.With("request_id", rid)
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			l = l.With("trace_id", sc.TraceID().String())
		}
		c.SetUserContext(logger.WithContext(c.UserContext(), l))

		err := c.Next()

		l.Infow("http_request",
			"method", c.Method(),
			"path", c.Path(),
			"status", statusOf(c, err),
			"latency", float64(time.Since(start).Microseconds())/1000,
		)
		return err
	}
}

// statusOf returns the status the error handler will write for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
