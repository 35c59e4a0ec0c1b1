package costs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/services"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestGuardCheck(t *testing.T) {
	client := testdb.NewTestClient(t)
	guard := NewGuard(&config.CostConfig{Limit: 0.5})
	ctx := context.Background()

	user, err := services.NewUserService(client.Client).GetOrCreateUser(ctx, "guard@example.com", "", "Guard")
	require.NoError(t, err)

	t.Run("admits user under the limit", func(t *testing.T) {
		assert.NoError(t, guard.Check(ctx, client.Client, user.ID))
	})

	t.Run("anonymous sessions pass through", func(t *testing.T) {
		assert.NoError(t, guard.Check(ctx, client.Client, ""))
	})

	t.Run("rejects at the limit with spend details", func(t *testing.T) {
		guard.Record(ctx, client.Client, user.ID, 0.5)

		err := guard.Check(ctx, client.Client, user.ID)
		require.Error(t, err)

		data := events.AsErrorData(err)
		assert.Equal(t, events.KindCostLimitExceeded, data.Kind)
		assert.InDelta(t, 0.5, data.Details["user_cost"].(float64), 1e-9)
		assert.InDelta(t, 0.5, data.Details["limit"].(float64), 1e-9)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := guard.Check(ctx, client.Client, "missing")
		data := events.AsErrorData(err)
		assert.Equal(t, events.KindNotFound, data.Kind)
	})
}

func TestGuardRecord(t *testing.T) {
	client := testdb.NewTestClient(t)
	guard := NewGuard(&config.CostConfig{Limit: 0.5})
	ctx := context.Background()

	user, err := services.NewUserService(client.Client).GetOrCreateUser(ctx, "spend@example.com", "", "Spend")
	require.NoError(t, err)

	guard.Record(ctx, client.Client, user.ID, 0.1)
	// Zero cost and anonymous users are ignored.
	guard.Record(ctx, client.Client, user.ID, 0)
	guard.Record(ctx, client.Client, "", 0.2)
	guard.Record(ctx, client.Client, user.ID, 0.05)

	reloaded, err := services.NewUserService(client.Client).GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, reloaded.CostAccum, 1e-9)
}
