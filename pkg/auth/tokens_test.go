package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/config"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, err := NewTokenService(&config.AuthConfig{JWTExpirationHours: 1})
	require.NoError(t, err)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-a")
	issuer, err := NewTokenService(&config.AuthConfig{JWTExpirationHours: 1})
	require.NoError(t, err)
	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret-b")
	resolver, err := NewTokenService(&config.AuthConfig{JWTExpirationHours: 1})
	require.NoError(t, err)

	_, err = resolver.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, err := NewTokenService(&config.AuthConfig{JWTExpirationHours: 1})
	require.NoError(t, err)
	svc.ttl = -time.Minute

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	_, err = svc.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, err := NewTokenService(&config.AuthConfig{JWTExpirationHours: 1})
	require.NoError(t, err)

	_, err = svc.Resolve("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := NewTokenService(&config.AuthConfig{})
	assert.Error(t, err)
}

func TestNewGoogleVerifierRequiresClientID(t *testing.T) {
	_, err := NewGoogleVerifier(context.Background(), &config.AuthConfig{})
	assert.Error(t, err)
}
