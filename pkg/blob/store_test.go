package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*S3Store)(nil)
	_ Store = (*MemoryStore)(nil)
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	blobPath, err := store.Put(ctx, "doc-1/report.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	require.NotEmpty(t, blobPath)

	data, err := store.Get(ctx, blobPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, store.Delete(ctx, blobPath))
	_, err = store.Get(ctx, blobPath)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, blobPath))
}
