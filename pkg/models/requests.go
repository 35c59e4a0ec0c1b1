package models

// CreateDocumentRequest creates a document row after ingest.
type CreateDocumentRequest struct {
	OwnerID  string // empty for curated example documents
	Title    string
	FullText string
	BlobPath string
	Meta     DocumentMeta
}

// CreateChunkRequest creates one document chunk.
type CreateChunkRequest struct {
	DocumentID string
	Sequence   int
	Content    string
}

// CreateConversationRequest creates a main or highlight conversation.
type CreateConversationRequest struct {
	DocumentID    string
	Kind          string // "main" | "highlight"
	OriginChunkID string // chunk sequence as string; required for highlights
	IsDemo        bool
	Meta          ConversationMeta
}

// CreateMessageRequest appends a message to a conversation.
type CreateMessageRequest struct {
	ConversationID string
	Role           string // "system" | "user" | "assistant"
	Content        string
	ChunkContext   string
	Meta           MessageMeta
}

// CreateQuestionRequest persists one generated question.
type CreateQuestionRequest struct {
	ConversationID string
	Content        string
	ChunkID        string
}
