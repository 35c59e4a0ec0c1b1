package conversation

import (
	"context"
	"strings"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/prompt"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// QuestionsGenerate produces a batch of suggested questions for a chunk and
// persists them unanswered.
func (e *Engine) QuestionsGenerate(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p QuestionsGeneratePayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.ConversationID == "" {
		return events.NewValidationError("conversation_id", "required")
	}

	batch, cost, err := e.generateQuestions(ctx, client, p.ConversationID, p.ChunkID, p.Count, p.UserID)
	if err != nil {
		return err
	}
	e.emitCompleted(evt, QuestionsCompleted{
		ConversationID: p.ConversationID,
		Questions:      batch,
		Cost:           cost,
	})
	return nil
}

// QuestionsRegenerate retires every existing question in the conversation,
// then generates a fresh batch. Only the regenerate terminal event fires.
func (e *Engine) QuestionsRegenerate(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p QuestionsRegeneratePayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.ConversationID == "" {
		return events.NewValidationError("conversation_id", "required")
	}

	if _, err := services.NewQuestionService(client).MarkAllAnswered(ctx, p.ConversationID); err != nil {
		return mapServiceError(err)
	}

	batch, cost, err := e.generateQuestions(ctx, client, p.ConversationID, p.ChunkID, 0, p.UserID)
	if err != nil {
		return err
	}
	e.emitCompleted(evt, QuestionsCompleted{
		ConversationID: p.ConversationID,
		Questions:      batch,
		Cost:           cost,
	})
	return nil
}

// QuestionsList returns the unanswered questions for a chunk. The first list
// for a chunk (tracked via meta.seen_chunks) triggers a generation so the
// client always receives suggestions.
func (e *Engine) QuestionsList(ctx context.Context, client *ent.Client, evt events.Event) error {
	var p QuestionsListPayload
	if err := events.DecodeData(evt, &p); err != nil {
		return err
	}
	if p.ConversationID == "" {
		return events.NewValidationError("conversation_id", "required")
	}

	convSvc := services.NewConversationService(client)
	conv, err := convSvc.GetConversation(ctx, p.ConversationID)
	if err != nil {
		return mapServiceError(err)
	}

	chunkID := p.ChunkID
	if chunkID == "" && conv.OriginChunkID != nil {
		chunkID = *conv.OriginChunkID
	}

	if !conv.Meta.HasSeenChunk(chunkID) {
		meta := conv.Meta
		meta.SeenChunks = append(meta.SeenChunks, chunkID)
		if err := convSvc.UpdateMeta(ctx, conv.ID, meta); err != nil {
			return mapServiceError(err)
		}
		if _, _, err := e.generateQuestions(ctx, client, conv.ID, chunkID, 0, p.UserID); err != nil {
			return err
		}
	}

	questions, err := services.NewQuestionService(client).ListUnanswered(ctx, conv.ID, chunkID)
	if err != nil {
		return mapServiceError(err)
	}
	e.emitCompleted(evt, QuestionsCompleted{
		ConversationID: conv.ID,
		Questions:      questionViews(questions),
	})
	return nil
}

// generateQuestions runs the cost guard, composes the question prompt for
// the conversation's kind, calls the LLM, and persists the parsed batch.
func (e *Engine) generateQuestions(ctx context.Context, client *ent.Client, conversationID, chunkID string, count int, userID string) ([]QuestionView, float64, error) {
	if count <= 0 {
		count = DefaultQuestionCount
	}

	conv, err := services.NewConversationService(client).GetConversation(ctx, conversationID)
	if err != nil {
		return nil, 0, mapServiceError(err)
	}
	if err := e.guard.Check(ctx, client, userID); err != nil {
		return nil, 0, err
	}

	if chunkID == "" && conv.OriginChunkID != nil {
		chunkID = *conv.OriginChunkID
	}
	chunkText, err := e.chunkContent(ctx, client, conv.DocumentID, chunkID)
	if err != nil {
		return nil, 0, err
	}

	existing, err := services.NewQuestionService(client).ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, 0, mapServiceError(err)
	}
	previous := make([]string, len(existing))
	for i, q := range existing {
		previous[i] = q.Content
	}

	questionPrompt := prompt.Questions(models.ConversationKind(conv.Kind), prompt.QuestionInput{
		ChunkText:         chunkText,
		HighlightText:     conv.Meta.HighlightText,
		Count:             count,
		PreviousQuestions: previous,
	})

	result, err := e.chatter.Complete(ctx, e.cfg.LLM.ChatModelDefault, []models.ChatMessage{
		{Role: models.RoleUser, Content: questionPrompt},
	})
	if err != nil {
		return nil, 0, mapLLMError(err)
	}

	contents := parseQuestionList(result.Content, count)
	created, err := services.NewQuestionService(client).CreateQuestions(ctx, conversationID, chunkID, contents)
	if err != nil {
		return nil, 0, mapServiceError(err)
	}

	e.guard.Record(ctx, client, userID, result.Cost)
	return questionViews(created), result.Cost, nil
}

// parseQuestionList splits an LLM response into question lines, stripping
// enumeration markers, keeping up to count non-empty entries.
func parseQuestionList(content string, count int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = stripEnumeration(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == count {
			break
		}
	}
	return out
}

// stripEnumeration removes leading list markers such as "1.", "2)", "-", "*".
func stripEnumeration(line string) string {
	line = strings.TrimLeft(line, "-*• \t")
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}
	return strings.TrimSpace(line)
}

func questionViews(questions []*ent.Question) []QuestionView {
	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = questionView(q)
	}
	return views
}
