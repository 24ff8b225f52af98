package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and records it in metrics.
// Register it ahead of the error-handling middleware so the logged status is final.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		dur := time.Since(start)
		status := c.Response().StatusCode()
		path := c.Route().Path

		metrics.RecordRequest(path, c.Method(), status, dur)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.String("url", c.OriginalURL()),
			zap.String("remote_ip", c.IP()),
			zap.Int("status", status),
			zap.Int64("duration_ms", dur.Milliseconds()),
		}
		switch {
		case err != nil || status >= 500:
			logger.Error("request completed", append(fields, zap.Error(err))...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
		return err
	}
}
