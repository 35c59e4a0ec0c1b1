package models

// ChatRole is the role of a chat message sent to the LLM.
type ChatRole string

// Chat roles.
const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of an assembled LLM input sequence.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ConversationKind distinguishes the document-wide main thread from
// chunk-anchored highlight threads.
type ConversationKind string

// Conversation kinds.
const (
	KindMain      ConversationKind = "main"
	KindHighlight ConversationKind = "highlight"
)

// ContextMode selects how the LLM input is assembled for message.send.
type ContextMode string

// Context modes. Windowed is the default: main conversations are rewritten
// with chunk-switch compression; full concatenates every chunk.
const (
	ContextWindowed ContextMode = "windowed"
	ContextFull     ContextMode = "full"
)
