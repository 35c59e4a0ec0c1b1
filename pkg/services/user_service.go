package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/user"
)

// UserService manages user accounts and their accumulated LLM cost.
type UserService struct {
	client *ent.Client
}

// NewUserService creates a new UserService
func NewUserService(client *ent.Client) *UserService {
	return &UserService{client: client}
}

// GetOrCreateUser finds a user by email, creating one on first login.
// externalID is the identity-provider subject (empty for password signup).
func (s *UserService) GetOrCreateUser(ctx context.Context, email, externalID, displayName string) (*ent.User, error) {
	if email == "" {
		return nil, NewValidationError("email", "required")
	}

	existing, err := s.client.User.Query().
		Where(user.EmailEQ(email)).
		Only(ctx)
	if err == nil {
		return existing.Update().
			SetLastLoginAt(time.Now()).
			Save(ctx)
	}
	if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	create := s.client.User.Create().
		SetID(uuid.New().String()).
		SetEmail(email).
		SetDisplayName(displayName).
		SetLastLoginAt(time.Now())
	if externalID != "" {
		create = create.SetExternalID(externalID)
	}

	created, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// GetUser retrieves a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*ent.User, error) {
	u, err := s.client.User.Get(ctx, userID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*ent.User, error) {
	u, err := s.client.User.Query().
		Where(user.EmailEQ(email)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// AddCost atomically increments the user's accumulated LLM cost.
func (s *UserService) AddCost(ctx context.Context, userID string, delta float64) error {
	if delta < 0 {
		return NewValidationError("delta", "must be non-negative")
	}
	err := s.client.User.UpdateOneID(userID).
		AddCostAccum(delta).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add cost: %w", err)
	}
	return nil
}
