package conversation

import (
	"context"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// List returns the document's conversations. Demo conversations belonging to
// other connections are never visible.
func (e *Engine) List(ctx context.Context, client *ent.Client, evt events.Event) error {
	convs, err := services.NewConversationService(client).ListByDocument(ctx, evt.DocumentID, evt.ConnectionID)
	if err != nil {
		return mapServiceError(err)
	}
	views := make([]ConversationView, len(convs))
	for i, conv := range convs {
		views[i] = conversationView(conv)
	}
	e.emitCompleted(evt, ListCompleted{Conversations: views})
	return nil
}

// MessagesGet returns a conversation's messages in creation order.
func (e *Engine) MessagesGet(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p MessagesGetPayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.ConversationID == "" {
		return events.NewValidationError("conversation_id", "required")
	}

	if _, err := services.NewConversationService(client).GetConversation(ctx, p.ConversationID); err != nil {
		return mapServiceError(err)
	}
	msgs, err := services.NewMessageService(client).ListMessages(ctx, p.ConversationID)
	if err != nil {
		return mapServiceError(err)
	}

	views := make([]MessageView, len(msgs))
	for i, msg := range msgs {
		views[i] = messageView(msg)
	}
	e.emitCompleted(evt, MessagesCompleted{ConversationID: p.ConversationID, Messages: views})
	return nil
}

// ChunkGet returns every conversation anchored to a chunk sequence,
// including highlight text and range where present.
func (e *Engine) ChunkGet(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p ChunkGetPayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.SequenceNumber == "" {
		return events.NewValidationError("sequence_number", "required")
	}

	convs, err := services.NewConversationService(client).ListByOriginChunk(ctx, evt.DocumentID, p.SequenceNumber)
	if err != nil {
		return mapServiceError(err)
	}
	views := make([]ConversationView, len(convs))
	for i, conv := range convs {
		views[i] = conversationView(conv)
	}
	e.emitCompleted(evt, ChunkGetCompleted{SequenceNumber: p.SequenceNumber, Conversations: views})
	return nil
}
