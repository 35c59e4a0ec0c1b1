package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/models"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestQuestionService(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewQuestionService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)
	conv, err := NewConversationService(client.Client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID: doc.ID, Kind: "main", OriginChunkID: "0",
	})
	require.NoError(t, err)

	t.Run("creates batch with chunk id", func(t *testing.T) {
		questions, err := service.CreateQuestions(ctx, conv.ID, "0", []string{
			"What is a paragraph?",
			"Why three of them?",
		})
		require.NoError(t, err)
		require.Len(t, questions, 2)
		for _, q := range questions {
			assert.Equal(t, "0", q.Meta.ChunkID)
			assert.False(t, q.Answered)
		}
	})

	t.Run("list unanswered filters by chunk", func(t *testing.T) {
		_, err := service.CreateQuestions(ctx, conv.ID, "1", []string{"Second chunk question?"})
		require.NoError(t, err)

		chunk0, err := service.ListUnanswered(ctx, conv.ID, "0")
		require.NoError(t, err)
		assert.Len(t, chunk0, 2)

		chunk1, err := service.ListUnanswered(ctx, conv.ID, "1")
		require.NoError(t, err)
		require.Len(t, chunk1, 1)
		assert.Equal(t, "Second chunk question?", chunk1[0].Content)
	})

	t.Run("mark one answered", func(t *testing.T) {
		chunk0, err := service.ListUnanswered(ctx, conv.ID, "0")
		require.NoError(t, err)
		require.NotEmpty(t, chunk0)

		require.NoError(t, service.MarkAnswered(ctx, chunk0[0].ID))

		remaining, err := service.ListUnanswered(ctx, conv.ID, "0")
		require.NoError(t, err)
		assert.Len(t, remaining, len(chunk0)-1)
	})

	t.Run("mark all answered", func(t *testing.T) {
		n, err := service.MarkAllAnswered(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		for _, chunkID := range []string{"0", "1"} {
			remaining, err := service.ListUnanswered(ctx, conv.ID, chunkID)
			require.NoError(t, err)
			assert.Empty(t, remaining)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		questions, err := service.CreateQuestions(ctx, conv.ID, "0", nil)
		require.NoError(t, err)
		assert.Nil(t, questions)
	})
}
