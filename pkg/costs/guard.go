// Package costs implements admission control for LLM-invoking operations
// based on a per-user accumulated dollar cost.
package costs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// Guard compares a user's accumulated cost against the configured ceiling
// before LLM work starts, and records the spend afterwards. Anonymous demo
// sessions (empty user id) pass through unchecked.
type Guard struct {
	limit float64
}

// NewGuard creates a guard with the configured per-user ceiling.
func NewGuard(cfg *config.CostConfig) *Guard {
	return &Guard{limit: cfg.Limit}
}

// Check admits or rejects an LLM-invoking request for a user. Rejection is a
// COST_LIMIT_EXCEEDED error carrying the user's spend and the ceiling.
func (g *Guard) Check(ctx context.Context, client *ent.Client, userID string) error {
	if userID == "" {
		return nil
	}
	user, err := services.NewUserService(client).GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return events.NewError(events.KindNotFound, "user not found")
		}
		return err
	}
	if user.CostAccum >= g.limit {
		return events.NewError(events.KindCostLimitExceeded, "cost limit exceeded").
			WithDetails(map[string]any{
				"user_cost": user.CostAccum,
				"limit":     g.limit,
			})
	}
	return nil
}

// Record adds the cost of a completed LLM call to the user's accumulator.
// Recording failures are logged, not fatal: the response was already
// produced and must still reach the client.
func (g *Guard) Record(ctx context.Context, client *ent.Client, userID string, cost float64) {
	if userID == "" || cost <= 0 {
		return
	}
	if err := services.NewUserService(client).AddCost(ctx, userID, cost); err != nil {
		slog.Error("Failed to record LLM cost",
			"user_id", userID, "cost", cost, "error", err)
	}
}

// Limit returns the configured ceiling.
func (g *Guard) Limit() float64 { return g.limit }
