package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
)

const RequestIDKey = "request_id"

// RequestLogger tags every request with an id (kept from X-Request-ID when
// the caller sends one) and logs it once the handler returns.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	log = log.With("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(RequestIDKey, rid)
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the status before logging it
				c.Error(err)
			}
			status := c.Response().Status
			kv := []any{
				"method", req.Method,
				"path", c.Path(),
				"uri", req.RequestURI,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				RequestIDKey, rid,
			}
			switch {
			case status >= 500:
				log.Error("request failed", append(kv, "error", err)...)
			case status >= 400:
				log.Warn("request rejected", append(kv, "error", err)...)
			default:
				log.Info("request", kv...)
			}
			return nil
		}
	}
}
