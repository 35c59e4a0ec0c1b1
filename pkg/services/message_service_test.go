package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/models"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestMessageService_CreateMessage(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewMessageService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)
	conv, err := NewConversationService(client.Client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "main", OriginChunkID: "0",
	})
	require.NoError(t, err)

	t.Run("creates message with chunk context and meta", func(t *testing.T) {
		msg, err := service.CreateMessage(ctx, models.CreateMessageRequest{
			ConversationID: conv.ID,
			Role:           "user",
			Content:        "Summary of highlight discussion:\nsome summary",
			ChunkContext:   "1",
			Meta:           models.MessageMeta{MergedFrom: "highlight-123"},
		})
		require.NoError(t, err)
		assert.Equal(t, "1", msg.ChunkContext)
		assert.Equal(t, "highlight-123", msg.Meta.MergedFrom)
	})

	t.Run("validates fields", func(t *testing.T) {
		_, err := service.CreateMessage(ctx, models.CreateMessageRequest{Role: "user", Content: "x"})
		assert.True(t, IsValidationError(err))

		_, err = service.CreateMessage(ctx, models.CreateMessageRequest{
			ConversationID: conv.ID, Role: "narrator", Content: "x",
		})
		assert.True(t, IsValidationError(err))

		_, err = service.CreateMessage(ctx, models.CreateMessageRequest{
			ConversationID: conv.ID, Role: "user",
		})
		assert.True(t, IsValidationError(err))
	})
}

func TestMessageService_ListMessagesOrder(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewMessageService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)
	conv, err := NewConversationService(client.Client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "main", OriginChunkID: "0",
	})
	require.NoError(t, err)

	for _, content := range []string{"system setup", "first question", "first answer"} {
		role := "user"
		switch content {
		case "system setup":
			role = "system"
		case "first answer":
			role = "assistant"
		}
		_, err := service.CreateMessage(ctx, models.CreateMessageRequest{
			ConversationID: conv.ID, Role: role, Content: content,
		})
		require.NoError(t, err)
	}

	msgs, err := service.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system setup", msgs[0].Content)
	assert.Equal(t, "first question", msgs[1].Content)
	assert.Equal(t, "first answer", msgs[2].Content)
}
