package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			// The error handler has not run yet, so derive the status the
			// client will see from the error itself.
			status := c.Response().Status
			if err != nil {
				status = StatusOf(err)
			}

			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error().Err(err)
			case status >= 400:
				evt = logger.Warn()
			default:
				evt = logger.Info()
			}

			uid, _ := c.Get("user_id").(string)
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("remote_ip", c.RealIP()).
				Str("user_id", uid).
				Msg("request")

			return err
		}
	}
}
