// Package events provides the in-process event bus and the registry of live
// WebSocket connections with their bounded outbound queues.
//
// Request events flow from session handlers through the bus into the service
// scheduler; completion, error, and streaming events flow back through the
// bus and are fanned out to the originating connection by the registry's
// wildcard listener.
package events

// Wildcard is the reserved subscription key that receives every event.
// Used only by the connection registry for per-connection fan-out.
const Wildcard = "*"

// Conversation-scope request events (client frame → bus).
const (
	TypeMainCreateRequested          = "conversation.main.create.requested"
	TypeChunkCreateRequested         = "conversation.chunk.create.requested"
	TypeMessageSendRequested         = "conversation.message.send.requested"
	TypeQuestionsGenerateRequested   = "conversation.questions.generate.requested"
	TypeQuestionsRegenerateRequested = "conversation.questions.regenerate.requested"
	TypeQuestionsListRequested       = "conversation.questions.list.requested"
	TypeMergeRequested               = "conversation.merge.requested"
	TypeConversationListRequested    = "conversation.list.requested"
	TypeMessagesGetRequested         = "conversation.messages.requested"
	TypeChunkGetRequested            = "conversation.chunk.get.requested"
)

// Document-scope request events.
const (
	TypeDocChunkListRequested  = "document.chunk.list.requested"
	TypeDocMetadataRequested   = "document.metadata.requested"
	TypeDocNavigationRequested = "document.navigation.requested"
	TypeDocProcessingRequested = "document.processing.requested"
)

// Streaming events (transient, per connection).
const (
	TypeChatToken     = "chat.token"
	TypeChatCompleted = "chat.completed"
)

// Completed returns the completion event type for a request event type,
// e.g. "conversation.list.requested" → "conversation.list.completed".
func Completed(requestType string) string {
	return terminal(requestType, ".completed")
}

// Errored returns the error event type for a request event type.
func Errored(requestType string) string {
	return terminal(requestType, ".error")
}

func terminal(requestType, suffix string) string {
	const req = ".requested"
	if len(requestType) > len(req) && requestType[len(requestType)-len(req):] == req {
		return requestType[:len(requestType)-len(req)] + suffix
	}
	return requestType + suffix
}

// Event is the unit of dispatch on the bus. ConnectionID addresses the
// originating WebSocket connection; RequestID is the client-supplied
// correlation token, echoed verbatim on completion and error events.
type Event struct {
	Type         string `json:"type"`
	DocumentID   string `json:"document_id,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// Error kinds surfaced through .error events.
const (
	KindValidation        = "VALIDATION"
	KindNotFound          = "NOT_FOUND"
	KindUnauthorized      = "UNAUTHORIZED"
	KindCostLimitExceeded = "COST_LIMIT_EXCEEDED"
	KindTimeout           = "TIMEOUT"
	KindBusOverflow       = "BUS_OVERFLOW"
	KindQueueFull         = "QUEUE_FULL"
	KindUpstreamLLM       = "UPSTREAM_LLM"
	KindUpstreamDB        = "UPSTREAM_DB"
	KindInternal          = "INTERNAL"
)

// ErrorData is the payload of every .error event.
type ErrorData struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
