package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/documentchunk"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// ChunkService manages the ordered chunks of a document.
type ChunkService struct {
	client *ent.Client
}

// NewChunkService creates a new ChunkService
func NewChunkService(client *ent.Client) *ChunkService {
	return &ChunkService{client: client}
}

// CreateChunks bulk-inserts a document's chunks with contiguous sequences
// starting at 0, in text order.
func (s *ChunkService) CreateChunks(ctx context.Context, documentID string, contents []string) ([]*ent.DocumentChunk, error) {
	if documentID == "" {
		return nil, NewValidationError("document_id", "required")
	}
	if len(contents) == 0 {
		return nil, NewValidationError("contents", "required")
	}

	builders := make([]*ent.DocumentChunkCreate, len(contents))
	for i, content := range contents {
		builders[i] = s.client.DocumentChunk.Create().
			SetID(uuid.New().String()).
			SetDocumentID(documentID).
			SetSequence(i).
			SetContent(content).
			SetMeta(models.ChunkMeta{Length: len(content), Index: i})
	}

	chunks, err := s.client.DocumentChunk.CreateBulk(builders...).Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunks: %w", err)
	}
	return chunks, nil
}

// ListChunks returns a document's chunks in sequence order.
func (s *ChunkService) ListChunks(ctx context.Context, documentID string) ([]*ent.DocumentChunk, error) {
	chunks, err := s.client.DocumentChunk.Query().
		Where(documentchunk.DocumentIDEQ(documentID)).
		Order(ent.Asc(documentchunk.FieldSequence)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	return chunks, nil
}

// GetBySequence returns the chunk at a sequence position within a document.
func (s *ChunkService) GetBySequence(ctx context.Context, documentID string, sequence int) (*ent.DocumentChunk, error) {
	chunk, err := s.client.DocumentChunk.Query().
		Where(
			documentchunk.DocumentIDEQ(documentID),
			documentchunk.SequenceEQ(sequence),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return chunk, nil
}

// CountChunks returns the number of chunks in a document.
func (s *ChunkService) CountChunks(ctx context.Context, documentID string) (int, error) {
	n, err := s.client.DocumentChunk.Query().
		Where(documentchunk.DocumentIDEQ(documentID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
