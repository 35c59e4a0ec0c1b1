package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/docupilot-ai/docupilot/pkg/config"
)

const googleIssuer = "https://accounts.google.com"

// GoogleIdentity is the subset of Google ID-token claims the login path uses.
type GoogleIdentity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// GoogleVerifier verifies Google ID tokens against the configured client id.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's OIDC configuration. Requires a
// configured client id; login is disabled without one.
func NewGoogleVerifier(ctx context.Context, cfg *config.AuthConfig) (*GoogleVerifier, error) {
	if cfg.GoogleClientID == "" {
		return nil, errors.New("google client id not configured")
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover Google OIDC provider: %w", err)
	}
	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.GoogleClientID}),
	}, nil
}

// Verify validates a Google ID token and extracts the user's identity.
func (g *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (*GoogleIdentity, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var identity GoogleIdentity
	if err := idToken.Claims(&identity); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}
	return &identity, nil
}
