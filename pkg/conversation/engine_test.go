package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/costs"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/llm"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/services"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

// harness runs the engine against a real database and a scripted chatter,
// capturing every bus event for assertions. Handlers are invoked directly,
// the way the scheduler invokes them.
type harness struct {
	client  *ent.Client
	bus     *events.Bus
	cfg     *config.Config
	chatter *llm.StubChatter
	engine  *Engine

	mu  sync.Mutex
	got []events.Event
}

func newHarness(t *testing.T, responses ...string) *harness {
	t.Helper()
	db := testdb.NewTestClient(t)

	bus := events.NewBus(256)
	bus.Initialize(context.Background())
	t.Cleanup(bus.Shutdown)

	cfg := config.Default()
	h := &harness{
		client:  db.Client,
		bus:     bus,
		cfg:     cfg,
		chatter: llm.NewStubChatter(responses...),
	}
	h.engine = NewEngine(bus, cfg, h.chatter, costs.NewGuard(&cfg.Costs))

	bus.On(events.Wildcard, func(_ context.Context, evt events.Event) {
		h.mu.Lock()
		h.got = append(h.got, evt)
		h.mu.Unlock()
	})
	return h
}

// seed inserts an owner, a document, and three chunks.
func (h *harness) seed(t *testing.T) (*ent.Document, *ent.User) {
	t.Helper()
	ctx := context.Background()

	owner, err := services.NewUserService(h.client).GetOrCreateUser(ctx, "reader@example.com", "", "Reader")
	require.NoError(t, err)

	doc, err := services.NewDocumentService(h.client).CreateDocument(ctx, models.CreateDocumentRequest{
		OwnerID:  owner.ID,
		Title:    "Field Notes",
		FullText: "Alpha section.\n\nBeta section.\n\nGamma section.",
	})
	require.NoError(t, err)

	_, err = services.NewChunkService(h.client).CreateChunks(ctx, doc.ID, []string{
		"Alpha section.",
		"Beta section.",
		"Gamma section.",
	})
	require.NoError(t, err)

	return doc, owner
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

func (h *harness) eventsOfType(eventType string) []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []events.Event
	for _, evt := range h.got {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func (h *harness) reset() {
	h.mu.Lock()
	h.got = nil
	h.mu.Unlock()
}

func TestMainCreateIsIdempotent(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	evt := events.Event{
		Type:         events.TypeMainCreateRequested,
		DocumentID:   doc.ID,
		ConnectionID: "conn-1",
		RequestID:    "req-1",
		Data:         MainCreatePayload{},
	}
	require.NoError(t, h.engine.MainCreate(ctx, h.client, evt))

	completed := h.waitFor(t, events.Completed(events.TypeMainCreateRequested))
	first := completed.Data.(MainCreateCompleted)
	assert.True(t, first.Created)
	assert.Equal(t, "req-1", completed.RequestID)

	// Second request returns the same conversation without creating.
	h.reset()
	evt.RequestID = "req-2"
	require.NoError(t, h.engine.MainCreate(ctx, h.client, evt))

	completed = h.waitFor(t, events.Completed(events.TypeMainCreateRequested))
	second := completed.Data.(MainCreateCompleted)
	assert.False(t, second.Created)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// Only one system message exists.
	msgs, err := services.NewMessageService(h.client).ListMessages(ctx, first.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "system", string(msgs[0].Role))
	assert.Contains(t, msgs[0].Content, "Alpha section.")
}

func TestChunkCreateChainsQuestionGeneration(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	evt := events.Event{
		Type:         events.TypeChunkCreateRequested,
		DocumentID:   doc.ID,
		ConnectionID: "conn-1",
		RequestID:    "req-7",
		Data: ChunkCreatePayload{
			ChunkID:        "1",
			HighlightText:  "Beta section.",
			HighlightRange: &models.HighlightRange{Start: 0, End: 13},
		},
	}
	require.NoError(t, h.engine.ChunkCreate(ctx, h.client, evt))

	completed := h.waitFor(t, events.Completed(events.TypeChunkCreateRequested))
	created := completed.Data.(ChunkCreateCompleted)
	require.NotEmpty(t, created.ConversationID)

	chained := h.waitFor(t, events.TypeQuestionsGenerateRequested)
	assert.Equal(t, "req-7:questions", chained.RequestID)
	assert.Equal(t, "conn-1", chained.ConnectionID)
	payload := chained.Data.(QuestionsGeneratePayload)
	assert.Equal(t, created.ConversationID, payload.ConversationID)
	assert.Equal(t, "1", payload.ChunkID)

	conv, err := services.NewConversationService(h.client).GetConversation(ctx, created.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "highlight", string(conv.Kind))
	assert.Equal(t, "Beta section.", conv.Meta.HighlightText)
}

func TestChunkCreateValidation(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)

	err := h.engine.ChunkCreate(context.Background(), h.client, events.Event{
		Type:       events.TypeChunkCreateRequested,
		DocumentID: doc.ID,
		Data:       ChunkCreatePayload{ChunkID: "1"},
	})
	var kinded *events.Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, events.KindValidation, kinded.Kind)
	assert.Equal(t, "highlight_text", kinded.Field)
}

func TestMessageSendStreamsAndPersists(t *testing.T) {
	h := newHarness(t, "The alpha section introduces the topic")
	doc, owner := h.seed(t)
	ctx := context.Background()

	require.NoError(t, h.engine.MainCreate(ctx, h.client, events.Event{
		Type:       events.TypeMainCreateRequested,
		DocumentID: doc.ID,
		Data:       MainCreatePayload{},
	}))
	created := h.waitFor(t, events.Completed(events.TypeMainCreateRequested)).Data.(MainCreateCompleted)
	h.reset()

	require.NoError(t, h.engine.MessageSend(ctx, h.client, events.Event{
		Type:         events.TypeMessageSendRequested,
		DocumentID:   doc.ID,
		ConnectionID: "conn-1",
		RequestID:    "req-3",
		Data: MessageSendPayload{
			ConversationID:   created.ConversationID,
			Content:          "What is Alpha about?",
			ConversationType: "main",
			ChunkID:          "0",
			UserID:           owner.ID,
		},
	}))

	completed := h.waitFor(t, events.Completed(events.TypeMessageSendRequested))
	result := completed.Data.(MessageSendCompleted)
	assert.Equal(t, "The alpha section introduces the topic", result.Message.Content)
	assert.Equal(t, "assistant", result.Message.Role)
	assert.Greater(t, result.Cost, 0.0)

	// Tokens stream before the terminal chat.completed.
	tokens := h.eventsOfType(events.TypeChatToken)
	require.NotEmpty(t, tokens)
	chatDone := h.eventsOfType(events.TypeChatCompleted)
	require.Len(t, chatDone, 1)
	var streamed strings.Builder
	for _, evt := range tokens {
		streamed.WriteString(evt.Data.(TokenData).Token)
	}
	assert.Equal(t, "The alpha section introduces the topic", streamed.String())

	// Stored history: system, user, assistant.
	msgs, err := services.NewMessageService(h.client).ListMessages(ctx, created.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[1].Role))
	assert.Equal(t, "0", msgs[1].ChunkContext)
	assert.Equal(t, "assistant", string(msgs[2].Role))

	// LLM input: system prompt, the initial switch pair with inlined chunk
	// text, then the user message.
	require.Len(t, h.chatter.Calls, 1)
	input := h.chatter.Calls[0]
	require.Len(t, input, 4)
	assert.Equal(t, models.RoleSystem, input[0].Role)
	assert.Contains(t, input[1].Content, "<switched to chunks 0-0>")
	assert.Contains(t, input[1].Content, "Alpha section.")
	assert.Equal(t, "What is Alpha about?", input[3].Content)

	// Spend was recorded against the owner.
	user, err := services.NewUserService(h.client).GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.InDelta(t, h.chatter.CostEach, user.CostAccum, 1e-9)
}

func TestMessageSendRequiresChunkForMain(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	require.NoError(t, h.engine.MainCreate(ctx, h.client, events.Event{
		Type:       events.TypeMainCreateRequested,
		DocumentID: doc.ID,
		Data:       MainCreatePayload{},
	}))
	created := h.waitFor(t, events.Completed(events.TypeMainCreateRequested)).Data.(MainCreateCompleted)

	err := h.engine.MessageSend(ctx, h.client, events.Event{
		Type:       events.TypeMessageSendRequested,
		DocumentID: doc.ID,
		Data: MessageSendPayload{
			ConversationID:   created.ConversationID,
			Content:          "hello",
			ConversationType: "main",
		},
	})
	var kinded *events.Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, events.KindValidation, kinded.Kind)
	assert.Equal(t, "chunk_id", kinded.Field)
}

func TestMessageSendCostLimit(t *testing.T) {
	h := newHarness(t)
	doc, owner := h.seed(t)
	ctx := context.Background()

	require.NoError(t, h.engine.MainCreate(ctx, h.client, events.Event{
		Type:       events.TypeMainCreateRequested,
		DocumentID: doc.ID,
		Data:       MainCreatePayload{},
	}))
	created := h.waitFor(t, events.Completed(events.TypeMainCreateRequested)).Data.(MainCreateCompleted)

	h.engine.guard = costs.NewGuard(&config.CostConfig{Limit: 0})

	err := h.engine.MessageSend(ctx, h.client, events.Event{
		Type:       events.TypeMessageSendRequested,
		DocumentID: doc.ID,
		Data: MessageSendPayload{
			ConversationID:   created.ConversationID,
			Content:          "hello",
			ConversationType: "main",
			ChunkID:          "0",
			UserID:           owner.ID,
		},
	})
	var kinded *events.Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, events.KindCostLimitExceeded, kinded.Kind)
	assert.Equal(t, 0.0, kinded.Details["limit"])

	// Nothing was persisted and no LLM call was made.
	msgs, listErr := services.NewMessageService(h.client).ListMessages(ctx, created.ConversationID)
	require.NoError(t, listErr)
	assert.Len(t, msgs, 1)
	assert.Empty(t, h.chatter.Calls)
}

func TestQuestionsListGeneratesFirstBatch(t *testing.T) {
	h := newHarness(t, "1. What is alpha?\n2. Why alpha?\n3. How does alpha work?")
	doc, _ := h.seed(t)
	ctx := context.Background()

	require.NoError(t, h.engine.MainCreate(ctx, h.client, events.Event{
		Type:       events.TypeMainCreateRequested,
		DocumentID: doc.ID,
		Data:       MainCreatePayload{},
	}))
	created := h.waitFor(t, events.Completed(events.TypeMainCreateRequested)).Data.(MainCreateCompleted)
	h.reset()

	listEvt := events.Event{
		Type:       events.TypeQuestionsListRequested,
		DocumentID: doc.ID,
		Data:       QuestionsListPayload{ConversationID: created.ConversationID},
	}
	require.NoError(t, h.engine.QuestionsList(ctx, h.client, listEvt))

	completed := h.waitFor(t, events.Completed(events.TypeQuestionsListRequested))
	batch := completed.Data.(QuestionsCompleted)
	require.Len(t, batch.Questions, 3)
	assert.Equal(t, "What is alpha?", batch.Questions[0].Content)
	assert.Equal(t, "0", batch.Questions[0].ChunkID)
	require.Len(t, h.chatter.Calls, 1)

	// A second list for the same chunk does not regenerate.
	h.reset()
	require.NoError(t, h.engine.QuestionsList(ctx, h.client, listEvt))
	completed = h.waitFor(t, events.Completed(events.TypeQuestionsListRequested))
	assert.Len(t, completed.Data.(QuestionsCompleted).Questions, 3)
	assert.Len(t, h.chatter.Calls, 1)
}

func TestQuestionsRegenerateRetiresPriorBatch(t *testing.T) {
	h := newHarness(t,
		"What is alpha?\nWhy alpha?\nHow does alpha work?",
		"What about beta?\nWhere is gamma?\nWhen did it start?",
	)
	doc, _ := h.seed(t)
	ctx := context.Background()

	conv, err := services.NewConversationService(h.client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "main",
		OriginChunkID: "0",
	})
	require.NoError(t, err)

	require.NoError(t, h.engine.QuestionsGenerate(ctx, h.client, events.Event{
		Type:       events.TypeQuestionsGenerateRequested,
		DocumentID: doc.ID,
		Data:       QuestionsGeneratePayload{ConversationID: conv.ID},
	}))
	h.waitFor(t, events.Completed(events.TypeQuestionsGenerateRequested))
	h.reset()

	require.NoError(t, h.engine.QuestionsRegenerate(ctx, h.client, events.Event{
		Type:       events.TypeQuestionsRegenerateRequested,
		DocumentID: doc.ID,
		Data:       QuestionsRegeneratePayload{ConversationID: conv.ID},
	}))

	completed := h.waitFor(t, events.Completed(events.TypeQuestionsRegenerateRequested))
	fresh := completed.Data.(QuestionsCompleted)
	require.Len(t, fresh.Questions, 3)
	assert.Equal(t, "What about beta?", fresh.Questions[0].Content)

	// Only the regenerate terminal event fired.
	assert.Empty(t, h.eventsOfType(events.Completed(events.TypeQuestionsGenerateRequested)))

	// The prior batch is answered, the fresh one is not.
	questionSvc := services.NewQuestionService(h.client)
	unanswered, err := questionSvc.ListUnanswered(ctx, conv.ID, "0")
	require.NoError(t, err)
	assert.Len(t, unanswered, 3)
	all, err := questionSvc.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	// The second prompt carries the first batch as previous questions.
	require.Len(t, h.chatter.Calls, 2)
	assert.Contains(t, h.chatter.Calls[1][0].Content, "What is alpha?")
}

func TestMergeAppendsSummaryToMain(t *testing.T) {
	h := newHarness(t, "The highlight discussed beta in depth.")
	doc, _ := h.seed(t)
	ctx := context.Background()

	convSvc := services.NewConversationService(h.client)
	msgSvc := services.NewMessageService(h.client)

	main, err := convSvc.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "main",
		OriginChunkID: "0",
	})
	require.NoError(t, err)

	highlight, err := convSvc.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "highlight",
		OriginChunkID: "1",
		Meta:          models.ConversationMeta{HighlightText: "Beta section."},
	})
	require.NoError(t, err)
	for _, msg := range []struct{ role, content string }{
		{"system", "You are discussing a highlighted passage."},
		{"user", "What does beta mean here?"},
		{"assistant", "Beta is the second section."},
	} {
		_, err = msgSvc.CreateMessage(ctx, models.CreateMessageRequest{
			ConversationID: highlight.ID,
			Role:           msg.role,
			Content:        msg.content,
			ChunkContext:   "1",
		})
		require.NoError(t, err)
	}

	require.NoError(t, h.engine.Merge(ctx, h.client, events.Event{
		Type:       events.TypeMergeRequested,
		DocumentID: doc.ID,
		Data: MergePayload{
			MainConversationID:      main.ID,
			HighlightConversationID: highlight.ID,
		},
	}))

	completed := h.waitFor(t, events.Completed(events.TypeMergeRequested))
	merged := completed.Data.(MergeCompleted)
	assert.Equal(t, main.ID, merged.MainID)
	assert.Equal(t, highlight.ID, merged.HighlightID)
	assert.Equal(t, "The highlight discussed beta in depth.", merged.Summary)

	msgs, err := msgSvc.ListMessages(ctx, main.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Summary of highlight discussion:\nThe highlight discussed beta in depth.", msgs[0].Content)
	assert.Equal(t, highlight.ID, msgs[0].Meta.MergedFrom)
	assert.Equal(t, "1", msgs[0].ChunkContext)
	assert.Equal(t, "Acknowledged conversation merge", msgs[1].Content)
	assert.Equal(t, "1", msgs[1].ChunkContext)

	// The highlight conversation survives the merge.
	_, err = convSvc.GetConversation(ctx, highlight.ID)
	require.NoError(t, err)

	// The summary prompt linearized the discussion, skipping the system line.
	require.Len(t, h.chatter.Calls, 1)
	prompt := h.chatter.Calls[0][0].Content
	assert.Contains(t, prompt, "user: What does beta mean here?")
	assert.NotContains(t, prompt, "You are discussing a highlighted passage.")
}

func TestMergeRejectsNonHighlight(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	main, err := services.NewConversationService(h.client).CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "main",
		OriginChunkID: "0",
	})
	require.NoError(t, err)

	err = h.engine.Merge(ctx, h.client, events.Event{
		Type:       events.TypeMergeRequested,
		DocumentID: doc.ID,
		Data: MergePayload{
			MainConversationID:      main.ID,
			HighlightConversationID: main.ID,
		},
	})
	var kinded *events.Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, events.KindValidation, kinded.Kind)
}

func TestDemoConversationsIsolatedPerConnection(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()
	h.cfg.ExampleDocumentIDs = []string{doc.ID}

	mainFor := func(connID string) MainCreateCompleted {
		t.Helper()
		h.reset()
		require.NoError(t, h.engine.MainCreate(ctx, h.client, events.Event{
			Type:         events.TypeMainCreateRequested,
			DocumentID:   doc.ID,
			ConnectionID: connID,
			Data:         MainCreatePayload{},
		}))
		return h.waitFor(t, events.Completed(events.TypeMainCreateRequested)).Data.(MainCreateCompleted)
	}

	first := mainFor("conn-a")
	assert.True(t, first.Created)

	// A different connection gets its own demo conversation.
	second := mainFor("conn-b")
	assert.True(t, second.Created)
	assert.NotEqual(t, first.ConversationID, second.ConversationID)

	// Repeat on the first connection reuses its conversation.
	again := mainFor("conn-a")
	assert.False(t, again.Created)
	assert.Equal(t, first.ConversationID, again.ConversationID)

	// Listing only shows the caller's demo conversations.
	h.reset()
	require.NoError(t, h.engine.List(ctx, h.client, events.Event{
		Type:         events.TypeConversationListRequested,
		DocumentID:   doc.ID,
		ConnectionID: "conn-a",
	}))
	listed := h.waitFor(t, events.Completed(events.TypeConversationListRequested)).Data.(ListCompleted)
	require.Len(t, listed.Conversations, 1)
	assert.Equal(t, first.ConversationID, listed.Conversations[0].ID)
}

func TestListingsAndChunkGet(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)
	ctx := context.Background()

	convSvc := services.NewConversationService(h.client)
	main, err := convSvc.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "main",
		OriginChunkID: "0",
	})
	require.NoError(t, err)
	highlight, err := convSvc.CreateConversation(ctx, models.CreateConversationRequest{
		DocumentID:    doc.ID,
		Kind:          "highlight",
		OriginChunkID: "1",
		Meta: models.ConversationMeta{
			HighlightText:  "Beta section.",
			HighlightRange: &models.HighlightRange{Start: 0, End: 13},
		},
	})
	require.NoError(t, err)

	require.NoError(t, h.engine.List(ctx, h.client, events.Event{
		Type:       events.TypeConversationListRequested,
		DocumentID: doc.ID,
	}))
	listed := h.waitFor(t, events.Completed(events.TypeConversationListRequested)).Data.(ListCompleted)
	assert.Len(t, listed.Conversations, 2)

	h.reset()
	require.NoError(t, h.engine.ChunkGet(ctx, h.client, events.Event{
		Type:       events.TypeChunkGetRequested,
		DocumentID: doc.ID,
		Data:       ChunkGetPayload{SequenceNumber: "1"},
	}))
	byChunk := h.waitFor(t, events.Completed(events.TypeChunkGetRequested)).Data.(ChunkGetCompleted)
	require.Len(t, byChunk.Conversations, 1)
	assert.Equal(t, highlight.ID, byChunk.Conversations[0].ID)
	assert.Equal(t, "Beta section.", byChunk.Conversations[0].HighlightText)

	h.reset()
	_, err = services.NewMessageService(h.client).CreateMessage(ctx, models.CreateMessageRequest{
		ConversationID: main.ID,
		Role:           "user",
		Content:        "hello",
		ChunkContext:   "0",
	})
	require.NoError(t, err)
	require.NoError(t, h.engine.MessagesGet(ctx, h.client, events.Event{
		Type:       events.TypeMessagesGetRequested,
		DocumentID: doc.ID,
		Data:       MessagesGetPayload{ConversationID: main.ID},
	}))
	history := h.waitFor(t, events.Completed(events.TypeMessagesGetRequested)).Data.(MessagesCompleted)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hello", history.Messages[0].Content)
}

func TestMessagesGetUnknownConversation(t *testing.T) {
	h := newHarness(t)
	doc, _ := h.seed(t)

	err := h.engine.MessagesGet(context.Background(), h.client, events.Event{
		Type:       events.TypeMessagesGetRequested,
		DocumentID: doc.ID,
		Data:       MessagesGetPayload{ConversationID: "missing"},
	})
	var kinded *events.Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, events.KindNotFound, kinded.Kind)
}

func TestMapLLMErrorPreservesDeadline(t *testing.T) {
	assert.ErrorIs(t, mapLLMError(context.DeadlineExceeded), context.DeadlineExceeded)

	var kinded *events.Error
	require.ErrorAs(t, mapLLMError(errors.New("boom")), &kinded)
	assert.Equal(t, events.KindUpstreamLLM, kinded.Kind)
}
