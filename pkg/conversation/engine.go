// Package conversation implements the main/highlight conversation engine:
// idempotent creation, message sending with chunk-switch compression,
// question generation, and highlight-to-main merging.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/costs"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/llm"
	"github.com/docupilot-ai/docupilot/pkg/queue"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// DefaultQuestionCount is used when a generate request omits count.
const DefaultQuestionCount = 3

// Engine owns all conversation-scope request handlers. Handlers run as
// scheduler tasks with a per-task database session; the engine itself holds
// no database state.
type Engine struct {
	bus     *events.Bus
	cfg     *config.Config
	chatter llm.Chatter
	guard   *costs.Guard

	// Serializes message.send per conversation so concurrent sends cannot
	// interleave their message inserts.
	sendMu sync.Mutex
	sends  map[string]*sync.Mutex
}

// NewEngine creates the conversation engine.
func NewEngine(bus *events.Bus, cfg *config.Config, chatter llm.Chatter, guard *costs.Guard) *Engine {
	return &Engine{
		bus:     bus,
		cfg:     cfg,
		chatter: chatter,
		guard:   guard,
		sends:   make(map[string]*sync.Mutex),
	}
}

// Register wires every conversation request type to its handler through the
// scheduler.
func (e *Engine) Register(sched *queue.Scheduler) {
	e.bus.On(events.TypeMainCreateRequested, sched.Wrap(e.MainCreate))
	e.bus.On(events.TypeChunkCreateRequested, sched.Wrap(e.ChunkCreate))
	e.bus.On(events.TypeMessageSendRequested, sched.Wrap(e.MessageSend))
	e.bus.On(events.TypeQuestionsGenerateRequested, sched.Wrap(e.QuestionsGenerate))
	e.bus.On(events.TypeQuestionsRegenerateRequested, sched.Wrap(e.QuestionsRegenerate))
	e.bus.On(events.TypeQuestionsListRequested, sched.Wrap(e.QuestionsList))
	e.bus.On(events.TypeMergeRequested, sched.Wrap(e.Merge))
	e.bus.On(events.TypeConversationListRequested, sched.Wrap(e.List))
	e.bus.On(events.TypeMessagesGetRequested, sched.Wrap(e.MessagesGet))
	e.bus.On(events.TypeChunkGetRequested, sched.Wrap(e.ChunkGet))
}

// emitCompleted publishes the .completed event for a request, echoing its
// correlation fields.
func (e *Engine) emitCompleted(evt events.Event, data any) {
	e.emit(events.Event{
		Type:         events.Completed(evt.Type),
		DocumentID:   evt.DocumentID,
		ConnectionID: evt.ConnectionID,
		RequestID:    evt.RequestID,
		Data:         data,
	})
}

func (e *Engine) emit(evt events.Event) {
	if err := e.bus.Emit(evt); err != nil {
		slog.Warn("Dropped outbound event", "type", evt.Type, "error", err)
	}
}

// lockConversation serializes LLM-invoking sends per conversation id.
func (e *Engine) lockConversation(conversationID string) func() {
	e.sendMu.Lock()
	mu, ok := e.sends[conversationID]
	if !ok {
		mu = &sync.Mutex{}
		e.sends[conversationID] = mu
	}
	e.sendMu.Unlock()
	mu.Lock()
	return mu.Unlock
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

// mapLLMError classifies a chatter failure, preserving deadline errors so
// the scheduler reports TIMEOUT.
func mapLLMError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return events.NewError(events.KindUpstreamLLM, "language model request failed")
}

// resolveChunkText returns a ChunkTextFunc over a document's chunks.
func resolveChunkText(ctx context.Context, client *ent.Client, documentID string) (ChunkTextFunc, error) {
	chunks, err := services.NewChunkService(client).ListChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}
	bySeq := make(map[string]string, len(chunks))
	for _, chunk := range chunks {
		bySeq[chunkKey(chunk.Sequence)] = chunk.Content
	}
	return func(chunkID string) (string, bool) {
		text, ok := bySeq[chunkID]
		return text, ok
	}, nil
}
