package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// CloseUnauthorized is sent when the session cannot be authorized or the
// document does not exist.
const CloseUnauthorized websocket.StatusCode = 4003

// conversationFrameEvents maps inbound conversation-scope frame types to the
// request events they emit.
var conversationFrameEvents = map[string]string{
	"conversation.main.create":          events.TypeMainCreateRequested,
	"conversation.chunk.create":         events.TypeChunkCreateRequested,
	"conversation.message.send":         events.TypeMessageSendRequested,
	"conversation.questions.generate":   events.TypeQuestionsGenerateRequested,
	"conversation.questions.regenerate": events.TypeQuestionsRegenerateRequested,
	"conversation.questions.list":       events.TypeQuestionsListRequested,
	"conversation.chunk.merge":          events.TypeMergeRequested,
	"conversation.list":                 events.TypeConversationListRequested,
	"conversation.messages.get":         events.TypeMessagesGetRequested,
	"conversation.get.by.sequence":      events.TypeChunkGetRequested,
	"document.chunk.list":               events.TypeDocChunkListRequested,
}

// documentFrameEvents maps inbound document-scope frame types.
var documentFrameEvents = map[string]string{
	"document.chunk.list": events.TypeDocChunkListRequested,
	"document.metadata":   events.TypeDocMetadataRequested,
	"document.navigation": events.TypeDocNavigationRequested,
	"document.processing": events.TypeDocProcessingRequested,
}

// frameEvents returns the inbound frame table for a scope.
func frameEvents(scope events.Scope) map[string]string {
	if scope == events.ScopeConversation {
		return conversationFrameEvents
	}
	return documentFrameEvents
}

// subscribedTypes returns every outbound event type a scope's connection
// receives: the completion and error terminals of its request events, plus
// the streaming chat events for conversation scope.
func subscribedTypes(scope events.Scope) []string {
	var out []string
	for _, requestType := range frameEvents(scope) {
		out = append(out, events.Completed(requestType), events.Errored(requestType))
	}
	if scope == events.ScopeConversation {
		out = append(out, events.TypeChatToken, events.TypeChatCompleted)
	}
	return out
}

// wsFrame is the JSON frame exchanged on both stream endpoints.
type wsFrame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// outFrame is the outbound counterpart; Data is re-encoded from the event.
type outFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// session owns one WebSocket connection: a writer goroutine drains the
// registry queue while the main loop reads client frames and emits request
// events on the bus.
type session struct {
	server *Server
	socket *websocket.Conn
	conn   *events.Connection
	userID string
	log    *slog.Logger
}

// run drives the session until the socket closes or the context ends.
// The writer goroutine exits with the read loop via the shared cancel.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)
	cancel()
	<-writerDone
}

// writeLoop drains the connection's outbound queue onto the socket.
func (s *session) writeLoop(ctx context.Context) {
	for {
		evt, ok := s.conn.Next(ctx)
		if !ok {
			return
		}
		if err := s.writeFrame(ctx, outFrame{
			Type:      evt.Type,
			Data:      evt.Data,
			RequestID: evt.RequestID,
		}); err != nil {
			s.log.Debug("WebSocket write failed, closing session", "error", err)
			return
		}
	}
}

func (s *session) writeFrame(ctx context.Context, frame outFrame) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.server.cfg.Conn.WriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, s.socket, frame)
}

// readLoop parses inbound frames and emits request events. Malformed or
// unknown frames get an immediate .error event through the registry so the
// reply flows through the same outbound path as every other event.
func (s *session) readLoop(ctx context.Context) {
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, s.socket, &frame); err != nil {
			return
		}
		s.handleFrame(frame)
	}
}

func (s *session) handleFrame(frame wsFrame) {
	eventType, ok := frameEvents(s.conn.Scope)[frame.Type]
	if !ok {
		s.replyError(frame, events.ErrorData{
			Kind:    events.KindValidation,
			Message: "unknown frame type",
			Field:   "type",
		})
		return
	}

	data, err := decodeFrameData(frame.Data)
	if err != nil {
		s.replyError(frame, events.ErrorData{
			Kind:    events.KindValidation,
			Message: "malformed frame data",
			Field:   "data",
		})
		return
	}
	// The user identity comes from the session, never from the client frame.
	delete(data, "user_id")
	if s.userID != "" {
		data["user_id"] = s.userID
	}

	err = s.server.bus.Emit(events.Event{
		Type:         eventType,
		DocumentID:   s.conn.DocumentID,
		ConnectionID: s.conn.ID,
		RequestID:    frame.RequestID,
		Data:         data,
	})
	if err != nil {
		s.replyError(frame, events.ErrorData{
			Kind:    events.KindBusOverflow,
			Message: "server busy, try again",
		})
	}
}

// replyError short-circuits a terminal .error event for a frame that never
// reached the bus. Delivery goes through the registry queue.
func (s *session) replyError(frame wsFrame, data events.ErrorData) {
	errorType := frame.Type + ".error"
	if requestType := frameEvents(s.conn.Scope)[frame.Type]; requestType != "" {
		errorType = events.Errored(requestType)
	}
	s.server.registry.Subscribe(s.conn.ID, errorType)
	s.server.registry.Dispatch(events.Event{
		Type:         errorType,
		DocumentID:   s.conn.DocumentID,
		ConnectionID: s.conn.ID,
		RequestID:    frame.RequestID,
		Data:         data,
	})
}

func decodeFrameData(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// cleanupDemoConversations purges the demo sandbox a conversation-scope
// connection accumulated on a curated example document.
func (s *session) cleanupDemoConversations() {
	if s.conn.Scope != events.ScopeConversation {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deleted, err := services.NewConversationService(s.server.db.Client).
		DeleteDemoByConnection(ctx, s.conn.ID)
	if err != nil {
		s.log.Error("Failed to clean up demo conversations", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("Purged demo conversations", "count", deleted)
	}
}
