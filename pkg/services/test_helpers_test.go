package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/models"
)

// createTestDocument inserts a user, a document owned by them, and three
// chunks. Returns the document.
func createTestDocument(t *testing.T, client *ent.Client) *ent.Document {
	t.Helper()
	ctx := context.Background()

	owner, err := NewUserService(client).GetOrCreateUser(ctx, "reader@example.com", "", "Reader")
	require.NoError(t, err)

	doc, err := NewDocumentService(client).CreateDocument(ctx, models.CreateDocumentRequest{
		OwnerID:  owner.ID,
		Title:    "Test Document",
		FullText: "First paragraph.\n\nSecond paragraph.\n\nThird paragraph.",
	})
	require.NoError(t, err)

	_, err = NewChunkService(client).CreateChunks(ctx, doc.ID, []string{
		"First paragraph.",
		"Second paragraph.",
		"Third paragraph.",
	})
	require.NoError(t, err)

	return doc
}
