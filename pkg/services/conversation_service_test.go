package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/models"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestConversationService_CreateConversation(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewConversationService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	t.Run("creates main conversation", func(t *testing.T) {
		conv, err := service.CreateConversation(ctx, models.CreateConversationRequest{
			DocumentID:    doc.ID,
			Kind:          "main",
			OriginChunkID: "0",
		})
		require.NoError(t, err)
		assert.False(t, conv.IsDemo)
		require.NotNil(t, conv.OriginChunkID)
		assert.Equal(t, "0", *conv.OriginChunkID)
	})

	t.Run("creates highlight with text and range in meta", func(t *testing.T) {
		conv, err := service.CreateConversation(ctx, models.CreateConversationRequest{
			DocumentID:    doc.ID,
			Kind:          "highlight",
			OriginChunkID: "1",
			Meta: models.ConversationMeta{
				HighlightText:  "Second paragraph",
				HighlightRange: &models.HighlightRange{Start: 0, End: 16},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Second paragraph", conv.Meta.HighlightText)
		require.NotNil(t, conv.Meta.HighlightRange)
		assert.Equal(t, 16, conv.Meta.HighlightRange.End)
	})

	t.Run("highlight requires origin chunk", func(t *testing.T) {
		_, err := service.CreateConversation(ctx, models.CreateConversationRequest{
			DocumentID: doc.ID,
			Kind:       "highlight",
		})
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := service.CreateConversation(ctx, models.CreateConversationRequest{
			DocumentID: doc.ID,
			Kind:       "sidebar",
		})
		assert.True(t, IsValidationError(err))
	})
}

func TestConversationService_FindMain(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewConversationService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	t.Run("nil when absent", func(t *testing.T) {
		conv, err := service.FindMain(ctx, doc.ID, "", false)
		require.NoError(t, err)
		assert.Nil(t, conv)
	})

	t.Run("finds regular main", func(t *testing.T) {
		created, err := service.CreateConversation(ctx, models.CreateConversationRequest{
			DocumentID:    doc.ID,
			Kind:          "main",
			OriginChunkID: "0",
		})
		require.NoError(t, err)

		found, err := service.FindMain(ctx, doc.ID, "", false)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("demo mains are scoped per connection", func(t *testing.T) {
		demoA, err := service.CreateConversation(ctx, models.CreateConversationRequest{
			DocumentID:    doc.ID,
			Kind:          "main",
			OriginChunkID: "0",
			IsDemo:        true,
			Meta:          models.ConversationMeta{ConnectionID: "conn-a"},
		})
		require.NoError(t, err)

		found, err := service.FindMain(ctx, doc.ID, "conn-a", true)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, demoA.ID, found.ID)

		other, err := service.FindMain(ctx, doc.ID, "conn-b", true)
		require.NoError(t, err)
		assert.Nil(t, other)
	})
}

func TestConversationService_ListByDocument(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewConversationService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	_, err := service.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "main", OriginChunkID: "0",
	})
	require.NoError(t, err)
	_, err = service.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "highlight", OriginChunkID: "1", IsDemo: true,
		Meta: models.ConversationMeta{ConnectionID: "conn-a", HighlightText: "x"},
	})
	require.NoError(t, err)

	mine, err := service.ListByDocument(ctx, doc.ID, "conn-a")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	other, err := service.ListByDocument(ctx, doc.ID, "conn-b")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestConversationService_ListByOriginChunk(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewConversationService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	_, err := service.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "highlight", OriginChunkID: "2",
		Meta: models.ConversationMeta{HighlightText: "Third"},
	})
	require.NoError(t, err)
	_, err = service.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "highlight", OriginChunkID: "2",
		Meta: models.ConversationMeta{HighlightText: "paragraph"},
	})
	require.NoError(t, err)

	convs, err := service.ListByOriginChunk(ctx, doc.ID, "2")
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	none, err := service.ListByOriginChunk(ctx, doc.ID, "0")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConversationService_DeleteDemoByConnection(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewConversationService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	demo, err := service.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "main", OriginChunkID: "0", IsDemo: true,
		Meta: models.ConversationMeta{ConnectionID: "conn-gone"},
	})
	require.NoError(t, err)
	kept, err := service.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "main", OriginChunkID: "0", IsDemo: true,
		Meta: models.ConversationMeta{ConnectionID: "conn-alive"},
	})
	require.NoError(t, err)

	// Messages cascade with the conversation.
	_, err = NewMessageService(client.Client).CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: demo.ID, Role: "system", Content: "setup",
	})
	require.NoError(t, err)

	deleted, err := service.DeleteDemoByConnection(ctx, "conn-gone")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = service.GetConversation(ctx, demo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	still, err := service.GetConversation(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, kept.ID, still.ID)

	msgs, err := NewMessageService(client.Client).ListMessages(ctx, demo.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// Empty connection id deletes nothing.
	n, err := service.DeleteDemoByConnection(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
