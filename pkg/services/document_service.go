package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// DocumentService manages documents and their chunks.
type DocumentService struct {
	client *ent.Client
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(client *ent.Client) *DocumentService {
	return &DocumentService{client: client}
}

// CreateDocument creates a document row in status "processing".
func (s *DocumentService) CreateDocument(ctx context.Context, req models.CreateDocumentRequest) (*ent.Document, error) {
	if req.Title == "" {
		return nil, NewValidationError("title", "required")
	}
	if req.FullText == "" {
		return nil, NewValidationError("full_text", "required")
	}

	create := s.client.Document.Create().
		SetID(uuid.New().String()).
		SetTitle(req.Title).
		SetFullText(req.FullText).
		SetMeta(req.Meta)
	if req.OwnerID != "" {
		create = create.SetOwnerID(req.OwnerID)
	}
	if req.BlobPath != "" {
		create = create.SetBlobPath(req.BlobPath)
	}

	doc, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// GetDocument retrieves a document by id.
func (s *DocumentService) GetDocument(ctx context.Context, documentID string) (*ent.Document, error) {
	doc, err := s.client.Document.Get(ctx, documentID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListByOwner returns a user's documents, newest first.
func (s *DocumentService) ListByOwner(ctx context.Context, ownerID string) ([]*ent.Document, error) {
	docs, err := s.client.Document.Query().
		Where(document.OwnerIDEQ(ownerID)).
		Order(ent.Desc(document.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// SetStatus moves a document through its processing lifecycle.
func (s *DocumentService) SetStatus(ctx context.Context, documentID string, status document.Status) error {
	err := s.client.Document.UpdateOneID(documentID).
		SetStatus(status).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to set document status: %w", err)
	}
	return nil
}

// SetBlobPath records the object-store address of the original file.
func (s *DocumentService) SetBlobPath(ctx context.Context, documentID, blobPath string) error {
	err := s.client.Document.UpdateOneID(documentID).
		SetBlobPath(blobPath).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to set document blob path: %w", err)
	}
	return nil
}

// UpdateMeta replaces the document's metadata blob.
func (s *DocumentService) UpdateMeta(ctx context.Context, documentID string, meta models.DocumentMeta) error {
	err := s.client.Document.UpdateOneID(documentID).
		SetMeta(meta).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update document meta: %w", err)
	}
	return nil
}

// PurgeFailedOlderThan deletes failed documents created before the cutoff.
// Returns the blob paths of any stored originals so the caller can remove
// them from the object store.
func (s *DocumentService) PurgeFailedOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	docs, err := s.client.Document.Query().
		Where(
			document.StatusEQ(document.StatusFailed),
			document.CreatedAtLT(cutoff),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed documents: %w", err)
	}

	var blobPaths []string
	for _, doc := range docs {
		if doc.BlobPath != nil && *doc.BlobPath != "" {
			blobPaths = append(blobPaths, *doc.BlobPath)
		}
		if err := s.client.Document.DeleteOneID(doc.ID).Exec(ctx); err != nil && !ent.IsNotFound(err) {
			return blobPaths, fmt.Errorf("failed to delete failed document %s: %w", doc.ID, err)
		}
	}
	return blobPaths, nil
}

// DeleteDocument removes a document; chunks, conversations, messages and
// questions cascade at the database level. Returns the blob path (if any)
// so the caller can delete the stored original.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) (string, error) {
	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	var blobPath string
	if doc.BlobPath != nil {
		blobPath = *doc.BlobPath
	}
	if err := s.client.Document.DeleteOneID(documentID).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to delete document: %w", err)
	}
	return blobPath, nil
}
