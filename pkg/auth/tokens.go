// Package auth issues and resolves the bearer tokens used by the HTTP and
// WebSocket surfaces, and verifies Google ID tokens for login.
package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/docupilot-ai/docupilot/pkg/config"
)

// ErrInvalidToken is returned when a token fails parsing or validation.
var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies HS256 session tokens. The subject claim
// carries the user id.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service. The signing secret is read from
// JWT_SECRET; a missing secret is a startup error, never a silent default.
func NewTokenService(cfg *config.AuthConfig) (*TokenService, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET environment variable not set")
	}
	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for a user.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Resolve validates a token and returns the user id it was issued for.
func (s *TokenService) Resolve(tokenString string) (string, error) {
	token, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID := token.Subject()
	if userID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return userID, nil
}
