package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/apperr"
)

// StatusOf returns the HTTP status an error will be rendered with.
func StatusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind.Status()
	}
	return http.StatusInternalServerError
}

// messageOf returns the client-facing message. Unclassified errors pass
// their text through unchanged.
func messageOf(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && he.Code >= 500 {
			return he.Internal.Error()
		}
		if s, ok := he.Message.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", he.Message)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusOf(err)
		msg := messageOf(err)
		if status >= 500 {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, map[string]string{"error": msg})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
