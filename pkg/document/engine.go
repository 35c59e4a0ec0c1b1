// Package document implements the document view engine: chunk listing,
// metadata, index navigation, and the processing-ready acknowledgement.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docupilot-ai/docupilot/ent"
	entdocument "github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/queue"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// Engine owns the document-scope request handlers. Each handler runs as a
// scheduler task with its own database session.
type Engine struct {
	bus *events.Bus
}

// NewEngine creates the document engine.
func NewEngine(bus *events.Bus) *Engine {
	return &Engine{bus: bus}
}

// Register wires every document request type to its handler through the
// scheduler.
func (e *Engine) Register(sched *queue.Scheduler) {
	e.bus.On(events.TypeDocChunkListRequested, sched.Wrap(e.ChunkList))
	e.bus.On(events.TypeDocMetadataRequested, sched.Wrap(e.Metadata))
	e.bus.On(events.TypeDocNavigationRequested, sched.Wrap(e.Navigation))
	e.bus.On(events.TypeDocProcessingRequested, sched.Wrap(e.Processing))
}

// ChunkList returns the document's chunks in sequence order.
func (e *Engine) ChunkList(ctx context.Context, client *ent.Client, evt events.Event) error {
	if _, err := services.NewDocumentService(client).GetDocument(ctx, evt.DocumentID); err != nil {
		return mapServiceError(err)
	}
	chunks, err := services.NewChunkService(client).ListChunks(ctx, evt.DocumentID)
	if err != nil {
		return mapServiceError(err)
	}
	e.emitCompleted(evt, ChunkListCompleted{DocumentID: evt.DocumentID, Chunks: chunkViews(chunks)})
	return nil
}

// Metadata returns the document summary together with all chunks.
func (e *Engine) Metadata(ctx context.Context, client *ent.Client, evt events.Event) error {
	doc, err := services.NewDocumentService(client).GetDocument(ctx, evt.DocumentID)
	if err != nil {
		return mapServiceError(err)
	}
	chunks, err := services.NewChunkService(client).ListChunks(ctx, evt.DocumentID)
	if err != nil {
		return mapServiceError(err)
	}
	e.emitCompleted(evt, MetadataCompleted{Document: documentView(doc), Chunks: chunkViews(chunks)})
	return nil
}

// Navigation resolves a chunk index to {current, prev, next} chunk ids.
// Out-of-range indexes are a validation error.
func (e *Engine) Navigation(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p NavigationPayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}

	chunks, err := services.NewChunkService(client).ListChunks(ctx, evt.DocumentID)
	if err != nil {
		return mapServiceError(err)
	}
	if p.Index < 0 || p.Index >= len(chunks) {
		return events.NewValidationError("index",
			fmt.Sprintf("index %d out of range [0, %d)", p.Index, len(chunks)))
	}

	nav := NavigationCompleted{Index: p.Index, Current: chunks[p.Index].ID}
	if p.Index > 0 {
		nav.Prev = chunks[p.Index-1].ID
	}
	if p.Index < len(chunks)-1 {
		nav.Next = chunks[p.Index+1].ID
	}
	e.emitCompleted(evt, nav)
	return nil
}

// Processing marks the document ready. Idempotent: a document that is already
// ready is acknowledged without a write.
func (e *Engine) Processing(ctx context.Context, client *ent.Client, evt events.Event) error {
	docSvc := services.NewDocumentService(client)
	doc, err := docSvc.GetDocument(ctx, evt.DocumentID)
	if err != nil {
		return mapServiceError(err)
	}
	if doc.Status != entdocument.StatusReady {
		if err := docSvc.SetStatus(ctx, doc.ID, entdocument.StatusReady); err != nil {
			return mapServiceError(err)
		}
	}
	e.emitCompleted(evt, ProcessingCompleted{
		DocumentID: doc.ID,
		Status:     string(entdocument.StatusReady),
	})
	return nil
}

func (e *Engine) emitCompleted(evt events.Event, data any) {
	if err := e.bus.Emit(events.Event{
		Type:         events.Completed(evt.Type),
		DocumentID:   evt.DocumentID,
		ConnectionID: evt.ConnectionID,
		RequestID:    evt.RequestID,
		Data:         data,
	}); err != nil {
		slog.Warn("Dropped outbound event", "type", events.Completed(evt.Type), "error", err)
	}
}

// mapServiceError lifts service-layer errors into kinded event errors.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return &events.Error{Kind: events.KindValidation, Message: ve.Message, Field: ve.Field}
	}
	if errors.Is(err, services.ErrNotFound) {
		return events.NewError(events.KindNotFound, "not found")
	}
	var kinded *events.Error
	if errors.As(err, &kinded) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return &events.Error{Kind: events.KindUpstreamDB, Message: "database operation failed"}
}
