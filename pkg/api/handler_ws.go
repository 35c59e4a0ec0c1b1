package api

import (
	"errors"
	"log/slog"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// documentStreamHandler serves GET /api/documents/stream/:id.
func (s *Server) documentStreamHandler(c *echo.Context) error {
	return s.serveStream(c, events.ScopeDocument)
}

// conversationStreamHandler serves GET /api/conversations/stream/:id.
func (s *Server) conversationStreamHandler(c *echo.Context) error {
	return s.serveStream(c, events.ScopeConversation)
}

// serveStream upgrades the connection, authorizes it against the document,
// registers it, and runs the session until the socket closes.
func (s *Server) serveStream(c *echo.Context, scope events.Scope) error {
	documentID := c.Param("id")

	socket, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: s.cfg.Server.AllowedWSOrigins,
	})
	if err != nil {
		return err
	}

	userID, err := s.authorizeStream(c, documentID)
	if err != nil {
		_ = socket.Close(CloseUnauthorized, "unauthorized")
		return nil
	}

	connID := uuid.NewString()
	conn := s.registry.Connect(connID, documentID, scope)
	s.registry.Subscribe(connID, subscribedTypes(scope)...)

	log := slog.With("connection_id", connID,
		"document_id", documentID,
		"scope", scope)
	log.Info("WebSocket session opened", "authenticated", userID != "")

	sess := &session{
		server: s,
		socket: socket,
		conn:   conn,
		userID: userID,
		log:    log,
	}
	defer func() {
		s.registry.Disconnect(connID)
		sess.cleanupDemoConversations()
		_ = socket.CloseNow()
		log.Info("WebSocket session closed")
	}()

	sess.run(c.Request().Context())
	return nil
}

// authorizeStream resolves the optional token and checks document access.
// Example documents admit anyone; other documents admit only their owner.
func (s *Server) authorizeStream(c *echo.Context, documentID string) (string, error) {
	var userID string
	if token := c.QueryParam("token"); token != "" {
		resolved, err := s.tokens.Resolve(token)
		if err != nil {
			return "", err
		}
		userID = resolved
	}

	if s.cfg.IsExampleDocument(documentID) {
		return userID, nil
	}

	doc, err := services.NewDocumentService(s.db.Client).GetDocument(c.Request().Context(), documentID)
	if err != nil {
		return "", err
	}
	if doc.OwnerID == nil || userID == "" || *doc.OwnerID != userID {
		return "", errors.New("not the document owner")
	}
	return userID, nil
}
