package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func TestChunkService_CreateChunks(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewChunkService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	t.Run("sequences are contiguous from zero", func(t *testing.T) {
		chunks, err := service.ListChunks(ctx, doc.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Sequence)
			assert.Equal(t, i, chunk.Meta.Index)
			assert.Equal(t, len(chunk.Content), chunk.Meta.Length)
		}
	})

	t.Run("duplicate sequence rejected", func(t *testing.T) {
		_, err := service.CreateChunks(ctx, doc.ID, []string{"again"})
		assert.Error(t, err)
	})

	t.Run("validates input", func(t *testing.T) {
		_, err := service.CreateChunks(ctx, "", []string{"x"})
		assert.True(t, IsValidationError(err))

		_, err = service.CreateChunks(ctx, doc.ID, nil)
		assert.True(t, IsValidationError(err))
	})
}

func TestChunkService_GetBySequence(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewChunkService(client.Client)
	ctx := context.Background()

	doc := createTestDocument(t, client.Client)

	chunk, err := service.GetBySequence(ctx, doc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Second paragraph.", chunk.Content)

	_, err = service.GetBySequence(ctx, doc.ID, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := service.CountChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
