package document

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/ent"
	entdocument "github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/services"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

type harness struct {
	client *ent.Client
	engine *Engine

	mu  sync.Mutex
	got []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.NewTestClient(t)

	bus := events.NewBus(64)
	bus.Initialize(context.Background())
	t.Cleanup(bus.Shutdown)

	h := &harness{client: db.Client, engine: NewEngine(bus)}
	bus.On(events.Wildcard, func(_ context.Context, evt events.Event) {
		h.mu.Lock()
		h.got = append(h.got, evt)
		h.mu.Unlock()
	})
	return h
}

func (h *harness) seed(t *testing.T) (*ent.Document, []*ent.DocumentChunk) {
	t.Helper()
	ctx := context.Background()

	doc, err := services.NewDocumentService(h.client).CreateDocument(ctx, models.CreateDocumentRequest{
		Title:    "Field Notes",
		FullText: "Alpha section.\n\nBeta section.\n\nGamma section.",
	})
	require.NoError(t, err)
	chunks, err := services.NewChunkService(h.client).CreateChunks(ctx, doc.ID, []string{
		"Alpha section.",
		"Beta section.",
		"Gamma section.",
	})
	require.NoError(t, err)
	return doc, chunks
}

func (h *harness) waitFor(t *testing.T, eventType string) events.Event {
	t.Helper()
	var found events.Event
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, evt := range h.got {
			if evt.Type == eventType {
				found = evt
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "expected event %s", eventType)
	return found
}

func TestChunkList(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)

	require.NoError(t, h.engine.ChunkList(context.Background(), h.client, events.Event{
		Type:       events.TypeDocChunkListRequested,
		DocumentID: doc.ID,
		RequestID:  "req-1",
	}))

	completed := h.waitFor(t, events.Completed(events.TypeDocChunkListRequested))
	assert.Equal(t, "req-1", completed.RequestID)
	listed := completed.Data.(ChunkListCompleted)
	require.Len(t, listed.Chunks, 3)
	assert.Equal(t, 0, listed.Chunks[0].Sequence)
	assert.Equal(t, "Alpha section.", listed.Chunks[0].Content)
	assert.Equal(t, len("Alpha section."), listed.Chunks[0].Length)
}

func TestChunkListUnknownDocument(t *testing.T) {
	h := newHarness(t)

	err := h.engine.ChunkList(context.Background(), h.client, events.Event{
		Type:       events.TypeDocChunkListRequested,
		DocumentID: "missing",
	})
	var kinded *events.Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, events.KindNotFound, kinded.Kind)
}

func TestMetadata(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)

	require.NoError(t, h.engine.Metadata(context.Background(), h.client, events.Event{
		Type:       events.TypeDocMetadataRequested,
		DocumentID: doc.ID,
	}))

	meta := h.waitFor(t, events.Completed(events.TypeDocMetadataRequested)).Data.(MetadataCompleted)
	assert.Equal(t, doc.ID, meta.Document.ID)
	assert.Equal(t, "Field Notes", meta.Document.Title)
	assert.Len(t, meta.Chunks, 3)
}

func TestNavigation(t *testing.T) {
	h := newHarness(t)
	doc, chunks := h.seed(t)
	ctx := context.Background()

	tests := []struct {
		name                string
		index               int
		current, prev, next string
	}{
		{"first", 0, chunks[0].ID, "", chunks[1].ID},
		{"middle", 1, chunks[1].ID, chunks[0].ID, chunks[2].ID},
		{"last", 2, chunks[2].ID, chunks[1].ID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, h.engine.Navigation(ctx, h.client, events.Event{
				Type:       events.TypeDocNavigationRequested,
				DocumentID: doc.ID,
				RequestID:  tt.name,
				Data:       NavigationPayload{Index: tt.index},
			}))
			var nav NavigationCompleted
			require.Eventually(t, func() bool {
				h.mu.Lock()
				defer h.mu.Unlock()
				for _, evt := range h.got {
					if evt.Type == events.Completed(events.TypeDocNavigationRequested) && evt.RequestID == tt.name {
						nav = evt.Data.(NavigationCompleted)
						return true
					}
				}
				return false
			}, 2*time.Second, 10*time.Millisecond)
			assert.Equal(t, tt.current, nav.Current)
			assert.Equal(t, tt.prev, nav.Prev)
			assert.Equal(t, tt.next, nav.Next)
		})
	}
}

func TestNavigationOutOfRange(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	for _, index := range []int{-1, 3} {
		err := h.engine.Navigation(ctx, h.client, events.Event{
			Type:       events.TypeDocNavigationRequested,
			DocumentID: doc.ID,
			Data:       NavigationPayload{Index: index},
		})
		var kinded *events.Error
		require.ErrorAs(t, err, &kinded)
		assert.Equal(t, events.KindValidation, kinded.Kind)
		assert.Equal(t, "index", kinded.Field)
	}
}

func TestProcessingIsIdempotent(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	evt := events.Event{
		Type:       events.TypeDocProcessingRequested,
		DocumentID: doc.ID,
	}
	require.NoError(t, h.engine.Processing(ctx, h.client, evt))

	ack := h.waitFor(t, events.Completed(events.TypeDocProcessingRequested)).Data.(ProcessingCompleted)
	assert.Equal(t, "ready", ack.Status)

	stored, err := services.NewDocumentService(h.client).GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entdocument.StatusReady, stored.Status)

	// Acknowledging an already-ready document changes nothing.
	require.NoError(t, h.engine.Processing(ctx, h.client, evt))
	stored, err = services.NewDocumentService(h.client).GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entdocument.StatusReady, stored.Status)
}
