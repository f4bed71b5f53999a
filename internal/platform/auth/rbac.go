package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that admits callers whose role is one of
// roles. There is no implicit admin override.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[RoleFromContext(c.Request().Context())] {
				return echo.NewHTTPError(http.StatusForbidden, "Unauthorized access")
			}
			return next(c)
		}
	}
}
