package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestUserService_GetOrCreateUser(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewUserService(client.Client)
	ctx := context.Background()

	t.Run("creates user on first login", func(t *testing.T) {
		u, err := service.GetOrCreateUser(ctx, "new@example.com", "google-sub-1", "New User")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", u.Email)
		require.NotNil(t, u.ExternalID)
		assert.Equal(t, "google-sub-1", *u.ExternalID)
		assert.Zero(t, u.CostAccum)
		assert.NotNil(t, u.LastLoginAt)
	})

	t.Run("returns existing user and refreshes last login", func(t *testing.T) {
		first, err := service.GetOrCreateUser(ctx, "repeat@example.com", "", "Repeat")
		require.NoError(t, err)

		second, err := service.GetOrCreateUser(ctx, "repeat@example.com", "", "Different Name")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Repeat", second.DisplayName)
	})

	t.Run("validates email", func(t *testing.T) {
		_, err := service.GetOrCreateUser(ctx, "", "", "")
		assert.True(t, IsValidationError(err))
	})
}

func TestUserService_AddCost(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewUserService(client.Client)
	ctx := context.Background()

	u, err := service.GetOrCreateUser(ctx, "cost@example.com", "", "Cost User")
	require.NoError(t, err)

	require.NoError(t, service.AddCost(ctx, u.ID, 0.1))
	require.NoError(t, service.AddCost(ctx, u.ID, 0.25))

	reloaded, err := service.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, reloaded.CostAccum, 1e-9)

	t.Run("rejects negative delta", func(t *testing.T) {
		err := service.AddCost(ctx, u.ID, -0.1)
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		err := service.AddCost(ctx, "missing", 0.1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserService_GetUserByEmail(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewUserService(client.Client)
	ctx := context.Background()

	_, err := service.GetOrCreateUser(ctx, "lookup@example.com", "", "Lookup")
	require.NoError(t, err)

	u, err := service.GetUserByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, "lookup@example.com", u.Email)

	_, err = service.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
