package conversation

import (
	"context"
	"strings"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/conversation"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/prompt"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// MessageSend persists the user message, assembles the LLM input for the
// conversation's kind and context mode, streams the reply as chat.token
// events, and persists the assistant message. Sends on the same conversation
// are serialized.
func (e *Engine) MessageSend(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p MessageSendPayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.ConversationID == "" {
		return events.NewValidationError("conversation_id", "required")
	}
	if p.Content == "" {
		return events.NewValidationError("content", "required")
	}
	if p.ConversationType == "" {
		return events.NewValidationError("conversation_type", "required")
	}

	unlock := e.lockConversation(p.ConversationID)
	defer unlock()

	conv, err := services.NewConversationService(client).GetConversation(ctx, p.ConversationID)
	if err != nil {
		return mapServiceError(err)
	}
	if conv.Kind == conversation.KindMain && p.ChunkID == "" {
		return events.NewValidationError("chunk_id", "required for main conversations")
	}

	if err := e.guard.Check(ctx, client, p.UserID); err != nil {
		return err
	}

	chunkContext := p.ChunkID
	if conv.Kind == conversation.KindHighlight && conv.OriginChunkID != nil {
		chunkContext = *conv.OriginChunkID
	}

	msgSvc := services.NewMessageService(client)
	userMeta := models.MessageMeta{QuestionID: p.QuestionID}
	if _, err := msgSvc.CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: conv.ID,
		Role:           string(models.RoleUser),
		Content:        p.Content,
		ChunkContext:   chunkContext,
		Meta:           userMeta,
	}); err != nil {
		return mapServiceError(err)
	}

	mode := models.ContextWindowed
	model := e.cfg.LLM.ChatModelDefault
	if p.UseFullContext {
		mode = models.ContextFull
		model = e.cfg.LLM.ChatModelFullContext
	}

	input, err := e.assemble(ctx, client, conv, mode)
	if err != nil {
		return err
	}

	result, err := e.chatter.Stream(ctx, model, input, func(token string) {
		e.emit(events.Event{
			Type:         events.TypeChatToken,
			DocumentID:   evt.DocumentID,
			ConnectionID: evt.ConnectionID,
			RequestID:    evt.RequestID,
			Data:         TokenData{ConversationID: conv.ID, Token: token},
		})
	})
	if err != nil {
		return mapLLMError(err)
	}
	e.emit(events.Event{
		Type:         events.TypeChatCompleted,
		DocumentID:   evt.DocumentID,
		ConnectionID: evt.ConnectionID,
		RequestID:    evt.RequestID,
		Data:         ChatCompletedData{ConversationID: conv.ID, Content: result.Content},
	})

	assistant, err := msgSvc.CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: conv.ID,
		Role:           string(models.RoleAssistant),
		Content:        result.Content,
		ChunkContext:   chunkContext,
	})
	if err != nil {
		return mapServiceError(err)
	}

	e.guard.Record(ctx, client, p.UserID, result.Cost)

	if p.QuestionID != "" {
		if err := services.NewQuestionService(client).MarkAnswered(ctx, p.QuestionID); err != nil {
			return mapServiceError(err)
		}
	}

	e.emitCompleted(evt, MessageSendCompleted{
		ConversationID: conv.ID,
		Message:        messageView(assistant),
		Cost:           result.Cost,
	})
	return nil
}

// assemble builds the LLM input sequence for a conversation according to its
// kind and the requested context mode. The just-persisted user message is
// already part of the stored history.
func (e *Engine) assemble(ctx context.Context, client *ent.Client, conv *ent.Conversation, mode models.ContextMode) ([]models.ChatMessage, error) {
	stored, err := services.NewMessageService(client).ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	kind := models.ConversationKind(conv.Kind)
	history := make([]HistoryMessage, 0, len(stored))
	for _, msg := range stored {
		if msg.Role == "system" {
			continue
		}
		history = append(history, HistoryMessage{
			Role:    models.ChatRole(msg.Role),
			Content: msg.Content,
			Chunk:   msg.ChunkContext,
		})
	}

	if mode == models.ContextFull {
		return e.assembleFull(ctx, client, conv, kind, history)
	}
	if kind == models.KindHighlight {
		return assembleHighlight(stored, history), nil
	}
	return e.assembleMain(ctx, client, conv, stored, history)
}

// assembleFull replaces the stored system message with the full-context
// template over the concatenated document, then appends the history verbatim.
func (e *Engine) assembleFull(ctx context.Context, client *ent.Client, conv *ent.Conversation, kind models.ConversationKind, history []HistoryMessage) ([]models.ChatMessage, error) {
	chunks, err := services.NewChunkService(client).ListChunks(ctx, conv.DocumentID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	system := prompt.System(kind, models.ContextFull, prompt.SystemInput{
		FullDocumentText: strings.Join(texts, "\n\n"),
		HighlightText:    conv.Meta.HighlightText,
	})

	out := make([]models.ChatMessage, 0, len(history)+1)
	out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: system})
	for _, msg := range history {
		out = append(out, models.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out, nil
}

// assembleHighlight reuses the stored history, rewriting only the last user
// message through the highlight user template.
func assembleHighlight(stored []*ent.Message, history []HistoryMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history)+1)
	out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: systemContent(stored)})

	lastUser := -1
	for i, msg := range history {
		if msg.Role == models.RoleUser {
			lastUser = i
		}
	}
	for i, msg := range history {
		content := msg.Content
		if i == lastUser {
			content = prompt.User(models.KindHighlight, content)
		}
		out = append(out, models.ChatMessage{Role: msg.Role, Content: content})
	}
	return out
}

// assembleMain applies chunk-switch compression to the stored history.
func (e *Engine) assembleMain(ctx context.Context, client *ent.Client, conv *ent.Conversation, stored []*ent.Message, history []HistoryMessage) ([]models.ChatMessage, error) {
	chunkText, err := resolveChunkText(ctx, client, conv.DocumentID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	compressed := CompressHistory(history, chunkText)

	out := make([]models.ChatMessage, 0, len(compressed)+1)
	out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: systemContent(stored)})
	out = append(out, compressed...)
	return out, nil
}

// systemContent returns the stored system message's text (always first).
func systemContent(stored []*ent.Message) string {
	for _, msg := range stored {
		if msg.Role == "system" {
			return msg.Content
		}
	}
	return ""
}
