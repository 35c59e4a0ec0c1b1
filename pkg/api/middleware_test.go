package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/auth"
	"github.com/docupilot-ai/docupilot/pkg/config"
)

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(securityHeaders())
	e.GET("/test", func(c *echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "camera=(), microphone=(), geolocation=()", rec.Header().Get("Permissions-Policy"))
}

func TestRequireUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-test-secret")
	cfg := config.Default()
	tokens, err := auth.NewTokenService(&cfg.Auth)
	require.NoError(t, err)

	s := &Server{cfg: cfg, tokens: tokens}
	e := echo.New()
	e.GET("/protected", func(c *echo.Context) error {
		return c.String(http.StatusOK, currentUserID(c))
	}, s.requireUser)

	token, err := tokens.Issue("user-42")
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		expectCode int
		expectBody string
	}{
		{
			name:       "valid token passes and resolves the user",
			authHeader: "Bearer " + token,
			expectCode: http.StatusOK,
			expectBody: "user-42",
		},
		{
			name:       "missing header is rejected",
			authHeader: "",
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer header is rejected",
			authHeader: "Basic dXNlcjpwYXNz",
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "garbage token is rejected",
			authHeader: "Bearer not-a-token",
			expectCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectCode, rec.Code)
			if tt.expectBody != "" {
				assert.Equal(t, tt.expectBody, rec.Body.String())
			}
		})
	}
}
