// Package middleware holds the echo middleware of the API: authentication,
// role checks, request ids, request logging, Redis rate limiting and the
// Redis response cache.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-ticketing/internal/auth"
)

// Context keys set by JWTAuth.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// JWTAuth validates the Bearer access token and stores the caller's id and
// role in the context. A request without a token is 403 unauthenticated;
// a token that does not verify is 401 unauthorized.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "missing bearer token", "code": "unauthenticated",
				})
			}
			claims, err := auth.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "invalid or expired token", "code": "unauthorized",
				})
			}
			c.Set(UserIDKey, claims.UserID)
			c.Set(RoleKey, claims.Role)
			return next(c)
		}
	}
}
