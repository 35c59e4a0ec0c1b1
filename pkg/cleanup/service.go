// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/docupilot-ai/docupilot/pkg/blob"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// Service periodically enforces retention policies:
//   - Removes demo conversations orphaned by crashed connections
//   - Removes failed documents past their TTL, including stored originals
//
// All operations are idempotent and safe to run from multiple replicas.
type Service struct {
	config              *config.RetentionConfig
	conversationService *services.ConversationService
	documentService     *services.DocumentService
	blobs               blob.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(
	cfg *config.RetentionConfig,
	conversationService *services.ConversationService,
	documentService *services.DocumentService,
	blobs blob.Store,
) *Service {
	return &Service{
		config:              cfg,
		conversationService: conversationService,
		documentService:     documentService,
		blobs:               blobs,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"demo_conversation_ttl", s.config.DemoConversationTTL,
		"failed_document_ttl", s.config.FailedDocumentTTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.deleteStaleDemoConversations(ctx)
	s.purgeFailedDocuments(ctx)
}

func (s *Service) deleteStaleDemoConversations(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.DemoConversationTTL)
	count, err := s.conversationService.DeleteDemoOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: demo conversation cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted stale demo conversations", "count", count)
	}
}

func (s *Service) purgeFailedDocuments(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.FailedDocumentTTL)
	blobPaths, err := s.documentService.PurgeFailedOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: failed document cleanup failed", "error", err)
		return
	}
	for _, path := range blobPaths {
		if err := s.blobs.Delete(ctx, path); err != nil {
			slog.Error("Retention: failed to delete orphaned blob", "path", path, "error", err)
		}
	}
	if len(blobPaths) > 0 {
		slog.Info("Retention: purged failed documents with stored originals", "count", len(blobPaths))
	}
}
