// Package llm wraps the OpenAI Chat Completions API behind a small streaming
// interface. Token usage is converted to dollar cost here so callers only
// deal in dollars.
package llm

import (
	"context"
	"errors"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

// ErrEmptyResponse is returned when the vendor stream ends without content.
var ErrEmptyResponse = errors.New("llm returned no content")

// Usage is the vendor-reported token usage of one call.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Result is the outcome of one chat call.
type Result struct {
	Content string
	Usage   Usage
	// Cost is the dollar cost of the call derived from Usage and the
	// model's pricing entry.
	Cost float64
}

// TokenFunc receives each content delta as it arrives from the stream.
type TokenFunc func(token string)

// Chatter is the chat interface used by the conversation engine. Stream
// invokes onToken for every delta; Complete buffers the whole response.
type Chatter interface {
	Stream(ctx context.Context, model string, msgs []models.ChatMessage, onToken TokenFunc) (*Result, error)
	Complete(ctx context.Context, model string, msgs []models.ChatMessage) (*Result, error)
}
