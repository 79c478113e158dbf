package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/signalsfoundry/region-globe/internal/logging"
)

// requestIDLocal is where fiber's requestid middleware stores the ID.
const requestIDLocal = "requestid"

// RequestLoggerMiddleware copies the request ID into the request context and
// attaches a per-request logger annotated with request_id and route.
func RequestLoggerMiddleware(base logging.Logger) fiber.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals(requestIDLocal).(string); ok && rid != "" {
			ctx = logging.ContextWithRequestID(ctx, rid)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("path", c.Path())))
		c.SetUserContext(logging.ContextWithLogger(ctx, reqLog))
		return c.Next()
	}
}

// AccessLogMiddleware logs one line per request at a level chosen by status.
// It prefers the request logger installed by RequestLoggerMiddleware.
func AccessLogMiddleware(base logging.Logger) fiber.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := []logging.Field{
			logging.String("method", method),
			logging.Int("status", status),
			logging.Duration("latency", time.Since(start)),
			logging.Int("bytes_out", len(c.Response().Body())),
		}

		ctx := c.UserContext()
		log := logging.LoggerFromContext(ctx)
		if log == nil {
			log = base
		}
		msg := fmt.Sprintf("%s %s", method, path)
		switch {
		case err != nil || status >= 500:
			if err != nil {
				fields = append(fields, logging.Err(err))
			}
			log.Error(ctx, msg, fields...)
		case status >= 400:
			log.Warn(ctx, msg, fields...)
		default:
			log.Info(ctx, msg, fields...)
		}
		return err
	}
}
