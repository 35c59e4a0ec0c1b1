package conversation

import (
	"context"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/conversation"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/prompt"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// Merge summarizes a highlight discussion and appends the summary to the
// main conversation as a user/assistant message pair. The highlight
// conversation itself is kept for later queries.
func (e *Engine) Merge(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p MergePayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.MainConversationID == "" {
		return events.NewValidationError("main_conversation_id", "required")
	}
	if p.HighlightConversationID == "" {
		return events.NewValidationError("highlight_conversation_id", "required")
	}

	convSvc := services.NewConversationService(client)
	highlight, err := convSvc.GetConversation(ctx, p.HighlightConversationID)
	if err != nil {
		return mapServiceError(err)
	}
	if highlight.Kind != conversation.KindHighlight {
		return events.NewValidationError("highlight_conversation_id", "not a highlight conversation")
	}
	main, err := convSvc.GetConversation(ctx, p.MainConversationID)
	if err != nil {
		return mapServiceError(err)
	}

	if err := e.guard.Check(ctx, client, p.UserID); err != nil {
		return err
	}

	msgSvc := services.NewMessageService(client)
	stored, err := msgSvc.ListMessages(ctx, highlight.ID)
	if err != nil {
		return mapServiceError(err)
	}

	history := make([]models.ChatMessage, len(stored))
	for i, msg := range stored {
		history[i] = models.ChatMessage{Role: models.ChatRole(msg.Role), Content: msg.Content}
	}

	summaryPrompt := prompt.Summary(prompt.SummaryInput{
		HighlightText:       highlight.Meta.HighlightText,
		ConversationHistory: history,
	})
	result, err := e.chatter.Complete(ctx, e.cfg.LLM.ChatModelDefault, []models.ChatMessage{
		{Role: models.RoleUser, Content: summaryPrompt},
	})
	if err != nil {
		return mapLLMError(err)
	}

	// Chunk context carries over from the highlight's first message.
	var chunkContext string
	if len(stored) > 0 {
		chunkContext = stored[0].ChunkContext
	}

	if _, err := msgSvc.CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: main.ID,
		Role:           string(models.RoleUser),
		Content:        "Summary of highlight discussion:\n" + result.Content,
		ChunkContext:   chunkContext,
		Meta:           models.MessageMeta{MergedFrom: highlight.ID},
	}); err != nil {
		return mapServiceError(err)
	}
	if _, err := msgSvc.CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: main.ID,
		Role:           string(models.RoleAssistant),
		Content:        "Acknowledged conversation merge",
		ChunkContext:   chunkContext,
	}); err != nil {
		return mapServiceError(err)
	}

	e.guard.Record(ctx, client, p.UserID, result.Cost)

	e.emitCompleted(evt, MergeCompleted{
		MainID:      main.ID,
		HighlightID: highlight.ID,
		Summary:     result.Content,
		Cost:        result.Cost,
	})
	return nil
}
