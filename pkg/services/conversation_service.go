package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/conversation"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// ConversationService manages main and highlight conversations.
type ConversationService struct {
	client *ent.Client
}

// NewConversationService creates a new ConversationService
func NewConversationService(client *ent.Client) *ConversationService {
	return &ConversationService{client: client}
}

// CreateConversation creates a conversation. Highlights require an origin chunk.
func (s *ConversationService) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*ent.Conversation, error) {
	if req.DocumentID == "" {
		return nil, NewValidationError("document_id", "required")
	}
	kind := conversation.Kind(req.Kind)
	if kind != conversation.KindMain && kind != conversation.KindHighlight {
		return nil, NewValidationError("kind", "must be main or highlight")
	}
	if kind == conversation.KindHighlight && req.OriginChunkID == "" {
		return nil, NewValidationError("origin_chunk_id", "required for highlight conversations")
	}

	create := s.client.Conversation.Create().
		SetID(uuid.New().String()).
		SetDocumentID(req.DocumentID).
		SetKind(kind).
		SetIsDemo(req.IsDemo).
		SetMeta(req.Meta)
	if req.OriginChunkID != "" {
		create = create.SetOriginChunkID(req.OriginChunkID)
	}

	conv, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation by id.
func (s *ConversationService) GetConversation(ctx context.Context, conversationID string) (*ent.Conversation, error) {
	conv, err := s.client.Conversation.Get(ctx, conversationID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// FindMain returns the document's main conversation, or nil when none exists.
// For demo documents the lookup is scoped to the requesting connection via
// meta.connection_id, giving each demo session its own main thread.
func (s *ConversationService) FindMain(ctx context.Context, documentID, connectionID string, demo bool) (*ent.Conversation, error) {
	convs, err := s.client.Conversation.Query().
		Where(
			conversation.DocumentIDEQ(documentID),
			conversation.KindEQ(conversation.KindMain),
			conversation.IsDemoEQ(demo),
		).
		Order(ent.Asc(conversation.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query main conversation: %w", err)
	}
	for _, conv := range convs {
		if !demo || conv.Meta.ConnectionID == connectionID {
			return conv, nil
		}
	}
	return nil, nil
}

// ListByDocument returns the document's conversations, oldest first. When
// connectionID is non-empty, demo conversations belonging to other
// connections are filtered out.
func (s *ConversationService) ListByDocument(ctx context.Context, documentID, connectionID string) ([]*ent.Conversation, error) {
	convs, err := s.client.Conversation.Query().
		Where(conversation.DocumentIDEQ(documentID)).
		Order(ent.Asc(conversation.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	filtered := convs[:0]
	for _, conv := range convs {
		if conv.IsDemo && conv.Meta.ConnectionID != connectionID {
			continue
		}
		filtered = append(filtered, conv)
	}
	return filtered, nil
}

// ListByOriginChunk returns all conversations anchored to a chunk sequence.
func (s *ConversationService) ListByOriginChunk(ctx context.Context, documentID, originChunkID string) ([]*ent.Conversation, error) {
	convs, err := s.client.Conversation.Query().
		Where(
			conversation.DocumentIDEQ(documentID),
			conversation.OriginChunkIDEQ(originChunkID),
		).
		Order(ent.Asc(conversation.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations by chunk: %w", err)
	}
	return convs, nil
}

// UpdateMeta replaces a conversation's metadata blob.
func (s *ConversationService) UpdateMeta(ctx context.Context, conversationID string, meta models.ConversationMeta) error {
	err := s.client.Conversation.UpdateOneID(conversationID).
		SetMeta(meta).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update conversation meta: %w", err)
	}
	return nil
}

// DeleteDemoOlderThan removes demo conversations created before the cutoff.
// Catches sandboxes whose connections died without a clean disconnect.
func (s *ConversationService) DeleteDemoOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	deleted, err := s.client.Conversation.Delete().
		Where(
			conversation.IsDemoEQ(true),
			conversation.CreatedAtLT(cutoff),
		).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale demo conversations: %w", err)
	}
	return deleted, nil
}

// DeleteDemoByConnection removes all demo conversations created by a
// connection. Messages and questions cascade. Returns the number deleted.
func (s *ConversationService) DeleteDemoByConnection(ctx context.Context, connectionID string) (int, error) {
	if connectionID == "" {
		return 0, nil
	}
	convs, err := s.client.Conversation.Query().
		Where(conversation.IsDemoEQ(true)).
		All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to query demo conversations: %w", err)
	}

	deleted := 0
	for _, conv := range convs {
		if conv.Meta.ConnectionID != connectionID {
			continue
		}
		if err := s.client.Conversation.DeleteOneID(conv.ID).Exec(ctx); err != nil {
			if ent.IsNotFound(err) {
				continue
			}
			return deleted, fmt.Errorf("failed to delete demo conversation %s: %w", conv.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
