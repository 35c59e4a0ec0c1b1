package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/pkg/models"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestDocumentService_CreateDocument(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewDocumentService(client.Client)
	ctx := context.Background()

	t.Run("creates document in processing status", func(t *testing.T) {
		doc, err := service.CreateDocument(ctx, models.CreateDocumentRequest{
			Title:    "Paper",
			FullText: "body text",
			Meta:     models.DocumentMeta{Topic: "testing"},
		})
		require.NoError(t, err)
		assert.Equal(t, document.StatusProcessing, doc.Status)
		assert.Nil(t, doc.OwnerID)
		assert.Equal(t, "testing", doc.Meta.Topic)
	})

	t.Run("validates required fields", func(t *testing.T) {
		_, err := service.CreateDocument(ctx, models.CreateDocumentRequest{FullText: "x"})
		assert.True(t, IsValidationError(err))

		_, err = service.CreateDocument(ctx, models.CreateDocumentRequest{Title: "x"})
		assert.True(t, IsValidationError(err))
	})
}

func TestDocumentService_StatusLifecycle(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewDocumentService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	require.NoError(t, service.SetStatus(ctx, doc.ID, document.StatusReady))
	reloaded, err := service.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusReady, reloaded.Status)

	assert.ErrorIs(t, service.SetStatus(ctx, "missing", document.StatusFailed), ErrNotFound)
}

func TestDocumentService_ListByOwner(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewDocumentService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)
	require.NotNil(t, doc.OwnerID)

	docs, err := service.ListByOwner(ctx, *doc.OwnerID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
}

func TestDocumentService_DeleteCascades(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewDocumentService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	conv, err := NewConversationService(client.Client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "main",
		OriginChunkID: "0",
	})
	require.NoError(t, err)
	_, err = NewMessageService(client.Client).CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: conv.ID,
		Role:           "system",
		Content:        "setup",
	})
	require.NoError(t, err)

	_, err = service.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)

	_, err = service.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	chunks, err := NewChunkService(client.Client).ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = NewConversationService(client.Client).GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
