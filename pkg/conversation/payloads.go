package conversation

import (
	"time"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// Request payloads decoded from Event.Data. UserID is injected by the
// session handler from the connection's resolved identity, never taken from
// the client frame.

// MainCreatePayload requests the document's (idempotent) main conversation.
type MainCreatePayload struct {
	ChunkID string `json:"chunk_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// ChunkCreatePayload requests a new highlight conversation.
type ChunkCreatePayload struct {
	ChunkID        string                 `json:"chunk_id"`
	HighlightText  string                 `json:"highlight_text"`
	HighlightRange *models.HighlightRange `json:"highlight_range"`
	UserID         string                 `json:"user_id,omitempty"`
}

// MessageSendPayload requests an LLM reply to a user message.
type MessageSendPayload struct {
	ConversationID   string `json:"conversation_id"`
	Content          string `json:"content"`
	ConversationType string `json:"conversation_type"`
	ChunkID          string `json:"chunk_id,omitempty"`
	QuestionID       string `json:"question_id,omitempty"`
	UseFullContext   bool   `json:"use_full_context,omitempty"`
	UserID           string `json:"user_id,omitempty"`
}

// QuestionsGeneratePayload requests suggested questions for a chunk.
type QuestionsGeneratePayload struct {
	ConversationID   string `json:"conversation_id"`
	ConversationType string `json:"conversation_type,omitempty"`
	Count            int    `json:"count,omitempty"`
	ChunkID          string `json:"chunk_id,omitempty"`
	UserID           string `json:"user_id,omitempty"`
}

// QuestionsRegeneratePayload retires all prior questions and generates anew.
type QuestionsRegeneratePayload struct {
	ConversationID string `json:"conversation_id"`
	ChunkID        string `json:"chunk_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// QuestionsListPayload lists unanswered questions for a chunk, generating a
// first batch if the chunk was never seen.
type QuestionsListPayload struct {
	ConversationID string `json:"conversation_id"`
	ChunkID        string `json:"chunk_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// MergePayload summarizes a highlight thread into the main conversation.
type MergePayload struct {
	MainConversationID      string `json:"main_conversation_id"`
	HighlightConversationID string `json:"highlight_conversation_id"`
	UserID                  string `json:"user_id,omitempty"`
}

// ListPayload lists the document's conversations.
type ListPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// MessagesGetPayload fetches a conversation's full history.
type MessagesGetPayload struct {
	ConversationID string `json:"conversation_id"`
}

// ChunkGetPayload fetches all conversations anchored to a chunk sequence.
type ChunkGetPayload struct {
	SequenceNumber string `json:"sequence_number"`
}

// Completion payloads.

// MainCreateCompleted carries the (possibly pre-existing) main conversation.
type MainCreateCompleted struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
}

// ChunkCreateCompleted carries the new highlight conversation.
type ChunkCreateCompleted struct {
	ConversationID string `json:"conversation_id"`
}

// MessageSendCompleted carries the persisted assistant message.
type MessageSendCompleted struct {
	ConversationID string      `json:"conversation_id"`
	Message        MessageView `json:"message"`
	Cost           float64     `json:"cost"`
}

// QuestionsCompleted carries a generated or listed question batch.
type QuestionsCompleted struct {
	ConversationID string         `json:"conversation_id"`
	Questions      []QuestionView `json:"questions"`
	Cost           float64        `json:"cost,omitempty"`
}

// MergeCompleted carries the merge summary.
type MergeCompleted struct {
	MainID      string  `json:"main_id"`
	HighlightID string  `json:"highlight_id"`
	Summary     string  `json:"summary"`
	Cost        float64 `json:"cost"`
}

// ListCompleted carries the document's visible conversations.
type ListCompleted struct {
	Conversations []ConversationView `json:"conversations"`
}

// MessagesCompleted carries a conversation's history.
type MessagesCompleted struct {
	ConversationID string        `json:"conversation_id"`
	Messages       []MessageView `json:"messages"`
}

// ChunkGetCompleted carries the conversations anchored to one chunk.
type ChunkGetCompleted struct {
	SequenceNumber string             `json:"sequence_number"`
	Conversations  []ConversationView `json:"conversations"`
}

// TokenData is the payload of a chat.token event.
type TokenData struct {
	ConversationID string `json:"conversation_id"`
	Token          string `json:"token"`
}

// ChatCompletedData is the payload of the terminal chat.completed event.
type ChatCompletedData struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

// Views are the wire representations of persisted entities.

// ConversationView is the wire form of a conversation.
type ConversationView struct {
	ID             string                 `json:"id"`
	DocumentID     string                 `json:"document_id"`
	Kind           string                 `json:"kind"`
	OriginChunkID  string                 `json:"origin_chunk_id,omitempty"`
	IsDemo         bool                   `json:"is_demo,omitempty"`
	HighlightText  string                 `json:"highlight_text,omitempty"`
	HighlightRange *models.HighlightRange `json:"highlight_range,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// MessageView is the wire form of a message.
type MessageView struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	ChunkContext string    `json:"chunk_context,omitempty"`
	MergedFrom   string    `json:"merged_from,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// QuestionView is the wire form of a suggested question.
type QuestionView struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	ChunkID  string `json:"chunk_id,omitempty"`
	Answered bool   `json:"answered"`
}

func conversationView(conv *ent.Conversation) ConversationView {
	view := ConversationView{
		ID:             conv.ID,
		DocumentID:     conv.DocumentID,
		Kind:           string(conv.Kind),
		IsDemo:         conv.IsDemo,
		HighlightText:  conv.Meta.HighlightText,
		HighlightRange: conv.Meta.HighlightRange,
		CreatedAt:      conv.CreatedAt,
	}
	if conv.OriginChunkID != nil {
		view.OriginChunkID = *conv.OriginChunkID
	}
	return view
}

func messageView(msg *ent.Message) MessageView {
	return MessageView{
		ID:           msg.ID,
		Role:         string(msg.Role),
		Content:      msg.Content,
		ChunkContext: msg.ChunkContext,
		MergedFrom:   msg.Meta.MergedFrom,
		CreatedAt:    msg.CreatedAt,
	}
}

func questionView(q *ent.Question) QuestionView {
	return QuestionView{
		ID:       q.ID,
		Content:  q.Content,
		ChunkID:  q.Meta.ChunkID,
		Answered: q.Answered,
	}
}
