package conversation

import (
	"context"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/prompt"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// MainCreate returns the document's main conversation, creating it with its
// system message on first request. Idempotent per document; for demo
// documents, idempotent per (document, connection).
func (e *Engine) MainCreate(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p MainCreatePayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}

	isDemo := e.cfg.IsExampleDocument(evt.DocumentID)
	convSvc := services.NewConversationService(client)

	existing, err := convSvc.FindMain(ctx, evt.DocumentID, evt.ConnectionID, isDemo)
	if err != nil {
		return mapServiceError(err)
	}
	if existing != nil {
		e.emitCompleted(evt, MainCreateCompleted{ConversationID: existing.ID})
		return nil
	}

	originChunk := p.ChunkID
	if originChunk == "" {
		originChunk = "0"
	}
	chunkText, err := e.chunkContent(ctx, client, evt.DocumentID, originChunk)
	if err != nil {
		return err
	}

	meta := models.ConversationMeta{}
	if isDemo {
		meta.ConnectionID = evt.ConnectionID
	}
	conv, err := convSvc.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    evt.DocumentID,
		Kind:          string(models.KindMain),
		OriginChunkID: originChunk,
		IsDemo:        isDemo,
		Meta:          meta,
	})
	if err != nil {
		return mapServiceError(err)
	}

	system := prompt.System(models.KindMain, models.ContextWindowed, prompt.SystemInput{ChunkText: chunkText})
	_, err = services.NewMessageService(client).CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: conv.ID,
		Role:           string(models.RoleSystem),
		Content:        system,
		ChunkContext:   originChunk,
	})
	if err != nil {
		return mapServiceError(err)
	}

	e.emitCompleted(evt, MainCreateCompleted{ConversationID: conv.ID, Created: true})
	return nil
}

// ChunkCreate creates a highlight conversation anchored to a chunk and text
// range, then chains a question-generation request on the same connection so
// the client receives suggestions without a second round-trip.
func (e *Engine) ChunkCreate(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p ChunkCreatePayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.ChunkID == "" {
		return events.NewValidationError("chunk_id", "required")
	}
	if p.HighlightText == "" {
		return events.NewValidationError("highlight_text", "required")
	}
	if p.HighlightRange == nil {
		return events.NewValidationError("highlight_range", "required")
	}

	chunkText, err := e.chunkContent(ctx, client, evt.DocumentID, p.ChunkID)
	if err != nil {
		return err
	}

	isDemo := e.cfg.IsExampleDocument(evt.DocumentID)
	meta := models.ConversationMeta{
		HighlightText:  p.HighlightText,
		HighlightRange: p.HighlightRange,
	}
	if isDemo {
		meta.ConnectionID = evt.ConnectionID
	}

	conv, err := services.NewConversationService(client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    evt.DocumentID,
		Kind:          string(models.KindHighlight),
		OriginChunkID: p.ChunkID,
		IsDemo:        isDemo,
		Meta:          meta,
	})
	if err != nil {
		return mapServiceError(err)
	}

	system := prompt.System(models.KindHighlight, models.ContextWindowed, prompt.SystemInput{
		ChunkText:     chunkText,
		HighlightText: p.HighlightText,
	})
	_, err = services.NewMessageService(client).CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: conv.ID,
		Role:           string(models.RoleSystem),
		Content:        system,
		ChunkContext:   p.ChunkID,
	})
	if err != nil {
		return mapServiceError(err)
	}

	e.emitCompleted(evt, ChunkCreateCompleted{ConversationID: conv.ID})

	// Chain suggested questions for the new highlight.
	e.emit(events.Event{
		Type:         events.TypeQuestionsGenerateRequested,
		DocumentID:   evt.DocumentID,
		ConnectionID: evt.ConnectionID,
		RequestID:    derivedRequestID(evt.RequestID),
		Data: QuestionsGeneratePayload{
			ConversationID:   conv.ID,
			ConversationType: string(models.KindHighlight),
			ChunkID:          p.ChunkID,
			UserID:           p.UserID,
		},
	})
	return nil
}

// chunkContent loads the text of a chunk addressed by sequence string.
func (e *Engine) chunkContent(ctx context.Context, client *ent.Client, documentID, chunkID string) (string, error) {
	seq, ok := parseChunk(chunkID)
	if !ok {
		return "", events.NewValidationError("chunk_id", "must be a non-negative integer")
	}
	chunk, err := services.NewChunkService(client).GetBySequence(ctx, documentID, seq)
	if err != nil {
		return "", mapServiceError(err)
	}
	return chunk.Content, nil
}

// derivedRequestID correlates a chained request with the client frame that
// caused it.
func derivedRequestID(requestID string) string {
	if requestID == "" {
		return ""
	}
	return requestID + ":questions"
}
