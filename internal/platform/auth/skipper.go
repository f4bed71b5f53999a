package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths reachable without an access token. The
// refresh endpoint is listed because it authenticates with a refresh token
// through its own route-level middleware.
var publicPaths = map[string]bool{
	"/api/health":        true,
	"/api/health/db":     true,
	"/api/auth/login":    true,
	"/api/auth/register": true,
	"/api/auth/refresh":  true,
}

// AuthSkipper returns true for requests whose path should skip the access
// token gate.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given route path is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
