package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/question"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// QuestionService manages suggested questions attached to conversations.
type QuestionService struct {
	client *ent.Client
}

// NewQuestionService creates a new QuestionService
func NewQuestionService(client *ent.Client) *QuestionService {
	return &QuestionService{client: client}
}

// CreateQuestions persists a batch of generated questions for a chunk.
func (s *QuestionService) CreateQuestions(ctx context.Context, conversationID, chunkID string, contents []string) ([]*ent.Question, error) {
	if conversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}
	if len(contents) == 0 {
		return nil, nil
	}

	builders := make([]*ent.QuestionCreate, len(contents))
	for i, content := range contents {
		builders[i] = s.client.Question.Create().
			SetID(uuid.New().String()).
			SetConversationID(conversationID).
			SetContent(content).
			SetMeta(models.QuestionMeta{ChunkID: chunkID})
	}

	questions, err := s.client.Question.CreateBulk(builders...).Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}
	return questions, nil
}

// ListUnanswered returns a conversation's unanswered questions for a chunk,
// in creation order.
func (s *QuestionService) ListUnanswered(ctx context.Context, conversationID, chunkID string) ([]*ent.Question, error) {
	questions, err := s.client.Question.Query().
		Where(
			question.ConversationIDEQ(conversationID),
			question.AnsweredEQ(false),
		).
		Order(ent.Asc(question.FieldCreatedAt), ent.Asc(question.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	filtered := questions[:0]
	for _, q := range questions {
		if q.Meta.ChunkID == chunkID {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// ListByConversation returns every question in a conversation.
func (s *QuestionService) ListByConversation(ctx context.Context, conversationID string) ([]*ent.Question, error) {
	questions, err := s.client.Question.Query().
		Where(question.ConversationIDEQ(conversationID)).
		Order(ent.Asc(question.FieldCreatedAt), ent.Asc(question.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// MarkAnswered flips one question to answered. Answered is terminal.
func (s *QuestionService) MarkAnswered(ctx context.Context, questionID string) error {
	err := s.client.Question.UpdateOneID(questionID).
		SetAnswered(true).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark question answered: %w", err)
	}
	return nil
}

// MarkAllAnswered flips every question in a conversation to answered.
// Used by regenerate so stale suggestions stop surfacing.
func (s *QuestionService) MarkAllAnswered(ctx context.Context, conversationID string) (int, error) {
	n, err := s.client.Question.Update().
		Where(
			question.ConversationIDEQ(conversationID),
			question.AnsweredEQ(false),
		).
		SetAnswered(true).
		Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark questions answered: %w", err)
	}
	return n, nil
}
