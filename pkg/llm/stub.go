package llm

import (
	"context"
	"strings"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

// StubChatter is a scripted Chatter for tests and local development without
// an API key. Responses are consumed in order; the last one repeats.
type StubChatter struct {
	Responses []string
	CostEach  float64

	// Calls records every message sequence passed in, for assertions.
	Calls [][]models.ChatMessage

	Err  error
	next int
}

// NewStubChatter creates a stub that replies with the given responses.
func NewStubChatter(responses ...string) *StubChatter {
	return &StubChatter{Responses: responses, CostEach: 0.001}
}

// Stream replays the next scripted response word by word.
func (s *StubChatter) Stream(_ context.Context, _ string, msgs []models.ChatMessage, onToken TokenFunc) (*Result, error) {
	s.Calls = append(s.Calls, msgs)
	if s.Err != nil {
		return nil, s.Err
	}
	content := s.take()
	if onToken != nil {
		for _, word := range strings.SplitAfter(content, " ") {
			onToken(word)
		}
	}
	return &Result{Content: content, Cost: s.CostEach}, nil
}

// Complete replays the next scripted response in one piece.
func (s *StubChatter) Complete(_ context.Context, _ string, msgs []models.ChatMessage) (*Result, error) {
	s.Calls = append(s.Calls, msgs)
	if s.Err != nil {
		return nil, s.Err
	}
	return &Result{Content: s.take(), Cost: s.CostEach}, nil
}

func (s *StubChatter) take() string {
	if len(s.Responses) == 0 {
		return "stub response"
	}
	content := s.Responses[min(s.next, len(s.Responses)-1)]
	s.next++
	return content
}
