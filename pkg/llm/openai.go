package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// OpenAIChatter implements Chatter via the OpenAI Chat Completions API.
type OpenAIChatter struct {
	client openai.Client
}

// NewOpenAIChatter builds a chatter from config plus the OPENAI_API_KEY
// environment variable.
func NewOpenAIChatter(cfg *config.LLMConfig) (*OpenAIChatter, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIChatter{client: openai.NewClient(opts...)}, nil
}

// Stream performs a streaming chat completion, invoking onToken per delta.
// Usage arrives on the final chunk (IncludeUsage) and is folded into the cost.
func (c *OpenAIChatter) Stream(ctx context.Context, model string, msgs []models.ChatMessage, onToken TokenFunc) (*Result, error) {
	params := c.params(model, msgs)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	result := &Result{}
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				result.Content += delta
				if onToken != nil {
					onToken(delta)
				}
			}
		}
		if chunk.Usage.TotalTokens > 0 {
			result.Usage = Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	if result.Content == "" {
		return nil, ErrEmptyResponse
	}
	result.Cost = CostFor(model, result.Usage)
	return result, nil
}

// Complete performs a buffered chat completion.
func (c *OpenAIChatter) Complete(ctx context.Context, model string, msgs []models.ChatMessage) (*Result, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(model, msgs))
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}
	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	return &Result{
		Content: resp.Choices[0].Message.Content,
		Usage:   usage,
		Cost:    CostFor(model, usage),
	}, nil
}

func (c *OpenAIChatter) params(model string, msgs []models.ChatMessage) openai.ChatCompletionNewParams {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			converted = append(converted, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(m.Content))
		default:
			converted = append(converted, openai.UserMessage(m.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:    model,
		Messages: converted,
	}
}
