package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/message"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// MessageService manages the append-only message history of conversations.
type MessageService struct {
	client *ent.Client
}

// NewMessageService creates a new MessageService
func NewMessageService(client *ent.Client) *MessageService {
	return &MessageService{client: client}
}

// CreateMessage appends a message to a conversation.
func (s *MessageService) CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*ent.Message, error) {
	if req.ConversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}
	role := message.Role(req.Role)
	if role != message.RoleSystem && role != message.RoleUser && role != message.RoleAssistant {
		return nil, NewValidationError("role", "must be system, user or assistant")
	}
	if req.Content == "" {
		return nil, NewValidationError("content", "required")
	}

	create := s.client.Message.Create().
		SetID(uuid.New().String()).
		SetConversationID(req.ConversationID).
		SetRole(role).
		SetContent(req.Content).
		SetMeta(req.Meta)
	if req.ChunkContext != "" {
		create = create.SetChunkContext(req.ChunkContext)
	}

	msg, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages in creation order.
func (s *MessageService) ListMessages(ctx context.Context, conversationID string) ([]*ent.Message, error) {
	msgs, err := s.client.Message.Query().
		Where(message.ConversationIDEQ(conversationID)).
		Order(ent.Asc(message.FieldCreatedAt), ent.Asc(message.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}
