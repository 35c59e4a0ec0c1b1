package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostForKnownModel(t *testing.T) {
	cost := CostFor("gpt-4o-mini", Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000})
	assert.InDelta(t, 0.75, cost, 1e-9)
}

func TestCostForUnknownModelUsesDefault(t *testing.T) {
	cost := CostFor("some-future-model", Usage{PromptTokens: 1_000_000})
	assert.InDelta(t, 2.50, cost, 1e-9)
}

func TestCostForZeroUsage(t *testing.T) {
	assert.Zero(t, CostFor("gpt-4o", Usage{}))
}
