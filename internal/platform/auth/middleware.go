package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type JWTConfig struct {
	Tokens *TokenManager
	// Skipper bypasses authentication for public routes.
	Skipper func(c echo.Context) bool
	// QueryParam, when set, is read if the Authorization header is absent.
	// Browsers cannot set headers on a websocket upgrade.
	QueryParam string
}

// JWTMiddleware resolves the bearer token into an Identity and stores it on
// the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr := ""
			authHeader := c.Request().Header.Get("Authorization")
			switch {
			case authHeader != "":
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
				}
				tokenStr = strings.TrimSpace(parts[1])
			case cfg.QueryParam != "":
				tokenStr = c.QueryParam(cfg.QueryParam)
			}
			if tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			id, err := cfg.Tokens.Parse(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("identity", id)
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

// RequireKind rejects callers whose identity is not one of kinds.
func RequireKind(kinds ...Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, k := range kinds {
				if id.Kind == k {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "operation not permitted for "+string(id.Kind))
		}
	}
}

// MustIdentity returns the caller or a 401 for handlers mounted behind
// JWTMiddleware.
func MustIdentity(c echo.Context) (Identity, error) {
	id, ok := IdentityFromContext(c.Request().Context())
	if !ok {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}
