package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

const userIDContextKey = "user_id"

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// requireUser resolves the bearer token and stores the user id on the
// request context. Requests without a valid token are rejected.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		userID, err := s.resolveBearer(c)
		if err != nil || userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

// resolveBearer returns the user id for the request's Authorization header,
// or "" when no token is present.
func (s *Server) resolveBearer(c *echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", nil
	}
	return s.tokens.Resolve(token)
}

// currentUserID returns the user id stored by requireUser.
func currentUserID(c *echo.Context) string {
	userID, _ := c.Get(userIDContextKey).(string)
	return userID
}
