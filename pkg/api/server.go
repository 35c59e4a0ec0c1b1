// Package api provides the HTTP surface and the WebSocket session handlers
// that bridge client frames onto the event bus.
package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/docupilot-ai/docupilot/pkg/auth"
	"github.com/docupilot-ai/docupilot/pkg/blob"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/database"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/ingest"
	"github.com/docupilot-ai/docupilot/pkg/queue"
)

// Server hosts the REST endpoints and the two WebSocket stream endpoints.
type Server struct {
	cfg      *config.Config
	db       *database.Client
	bus      *events.Bus
	registry *events.Registry
	sched    *queue.Scheduler
	tokens   *auth.TokenService
	google   *auth.GoogleVerifier
	blobs    blob.Store
	chunker  *ingest.Chunker

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the API server and registers all routes. The Google
// verifier may be nil; Google login is then disabled.
func NewServer(
	cfg *config.Config,
	db *database.Client,
	bus *events.Bus,
	registry *events.Registry,
	sched *queue.Scheduler,
	tokens *auth.TokenService,
	google *auth.GoogleVerifier,
	blobs blob.Store,
) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		bus:      bus,
		registry: registry,
		sched:    sched,
		tokens:   tokens,
		google:   google,
		blobs:    blobs,
		chunker:  ingest.NewChunker(&cfg.Ingest),
	}

	e := echo.New()
	e.Use(securityHeaders())
	s.registerRoutes(e)
	s.echo = e
	return s
}

func (s *Server) registerRoutes(e *echo.Echo) {
	e.GET("/health", s.healthHandler)

	e.POST("/api/auth/signup", s.signupHandler)
	e.POST("/api/auth/google", s.googleLoginHandler)
	e.GET("/api/auth/config", s.authConfigHandler)

	e.GET("/api/users/me", s.userSelfHandler, s.requireUser)
	e.GET("/api/users/me/documents", s.userDocumentsHandler, s.requireUser)
	e.GET("/api/users/me/cost", s.userCostHandler, s.requireUser)

	e.POST("/api/documents/upload", s.uploadHandler, s.requireUser)
	e.POST("/api/documents/url", s.urlIngestHandler, s.requireUser)
	e.GET("/api/documents/:id/file", s.fileHandler)
	e.DELETE("/api/documents/:id", s.deleteDocumentHandler, s.requireUser)

	e.GET("/api/documents/stream/:id", s.documentStreamHandler)
	e.GET("/api/conversations/stream/:id", s.conversationStreamHandler)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves HTTP on addr and blocks until the server closes.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
