package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/ent/conversation"
	entdocument "github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/pkg/blob"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/services"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

func newService(t *testing.T) (*Service, *ent.Client, *blob.MemoryStore) {
	t.Helper()
	db := testdb.NewTestClient(t)
	blobs := blob.NewMemoryStore()
	cfg := config.Default()
	svc := NewService(&cfg.Retention,
		services.NewConversationService(db.Client),
		services.NewDocumentService(db.Client),
		blobs)
	return svc, db.Client, blobs
}

func createDocument(t *testing.T, client *ent.Client, status entdocument.Status, age time.Duration) *ent.Document {
	t.Helper()
	doc, err := client.Document.Create().
		SetID(uuid.New().String()).
		SetTitle("Field Notes").
		SetFullText("Alpha section.").
		SetStatus(status).
		SetCreatedAt(time.Now().Add(-age)).
		Save(context.Background())
	require.NoError(t, err)
	return doc
}

func createDemoConversation(t *testing.T, client *ent.Client, documentID, connectionID string, age time.Duration) *ent.Conversation {
	t.Helper()
	conv, err := client.Conversation.Create().
		SetID(uuid.New().String()).
		SetDocumentID(documentID).
		SetKind(conversation.KindMain).
		SetIsDemo(true).
		SetMeta(models.ConversationMeta{ConnectionID: connectionID}).
		SetCreatedAt(time.Now().Add(-age)).
		Save(context.Background())
	require.NoError(t, err)
	return conv
}

func TestCleanupDeletesStaleDemoConversations(t *testing.T) {
	svc, client, _ := newService(t)
	ctx := context.Background()

	doc := createDocument(t, client, entdocument.StatusReady, 48*time.Hour)
	stale := createDemoConversation(t, client, doc.ID, "conn-dead", 30*time.Hour)
	fresh := createDemoConversation(t, client, doc.ID, "conn-live", time.Minute)

	svc.runAll(ctx)

	_, err := client.Conversation.Get(ctx, stale.ID)
	assert.True(t, ent.IsNotFound(err), "stale demo conversation should be gone")
	_, err = client.Conversation.Get(ctx, fresh.ID)
	assert.NoError(t, err, "fresh demo conversation should survive")
	_, err = client.Document.Get(ctx, doc.ID)
	assert.NoError(t, err, "ready document should survive")
}

func TestCleanupPurgesFailedDocumentsAndBlobs(t *testing.T) {
	svc, client, blobs := newService(t)
	ctx := context.Background()

	failed := createDocument(t, client, entdocument.StatusFailed, 30*time.Hour)
	blobPath, err := blobs.Put(ctx, failed.ID+"/notes.txt", []byte("Alpha section."), "text/plain")
	require.NoError(t, err)
	_, err = client.Document.UpdateOneID(failed.ID).SetBlobPath(blobPath).Save(ctx)
	require.NoError(t, err)

	recentFailed := createDocument(t, client, entdocument.StatusFailed, time.Minute)
	ready := createDocument(t, client, entdocument.StatusReady, 30*time.Hour)

	svc.runAll(ctx)

	_, err = client.Document.Get(ctx, failed.ID)
	assert.True(t, ent.IsNotFound(err), "old failed document should be gone")
	_, err = blobs.Get(ctx, blobPath)
	assert.ErrorIs(t, err, blob.ErrNotFound, "its blob should be gone too")

	_, err = client.Document.Get(ctx, recentFailed.ID)
	assert.NoError(t, err, "recent failed document should survive")
	_, err = client.Document.Get(ctx, ready.ID)
	assert.NoError(t, err, "ready document should survive")
}

func TestCleanupStartStop(t *testing.T) {
	svc, _, _ := newService(t)

	svc.Start(context.Background())
	svc.Stop()
}
