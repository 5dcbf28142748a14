package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":               true,
	"/health/db":            true,
	"/api/v1/auth/login":    true,
	"/api/v1/auth/register": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether path is reachable without a bearer token.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
