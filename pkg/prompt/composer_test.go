package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

func TestSystemSelectsTemplateByKindAndMode(t *testing.T) {
	in := SystemInput{
		ChunkText:        "CHUNK",
		HighlightText:    "HIGHLIGHT",
		FullDocumentText: "FULLDOC",
	}

	main := System(models.KindMain, models.ContextWindowed, in)
	assert.Contains(t, main, "CHUNK")
	assert.NotContains(t, main, "HIGHLIGHT")
	assert.NotContains(t, main, "FULLDOC")

	highlight := System(models.KindHighlight, models.ContextWindowed, in)
	assert.Contains(t, highlight, "CHUNK")
	assert.Contains(t, highlight, "HIGHLIGHT")

	fullMain := System(models.KindMain, models.ContextFull, in)
	assert.Contains(t, fullMain, "FULLDOC")
	assert.NotContains(t, fullMain, "CHUNK")

	fullHighlight := System(models.KindHighlight, models.ContextFull, in)
	assert.Contains(t, fullHighlight, "FULLDOC")
	assert.Contains(t, fullHighlight, "HIGHLIGHT")
}

func TestSystemLeavesNoPlaceholders(t *testing.T) {
	for _, kind := range []models.ConversationKind{models.KindMain, models.KindHighlight} {
		for _, mode := range []models.ContextMode{models.ContextWindowed, models.ContextFull} {
			got := System(kind, mode, SystemInput{ChunkText: "c", HighlightText: "h", FullDocumentText: "f"})
			assert.False(t, strings.Contains(got, "{"), "unfilled placeholder in %s/%s: %s", kind, mode, got)
		}
	}
}

func TestUserWrapsMessage(t *testing.T) {
	assert.Equal(t, "What does this mean?", User(models.KindMain, "What does this mean?"))
	assert.Equal(t, "About the highlighted passage: What does this mean?",
		User(models.KindHighlight, "What does this mean?"))
}

func TestQuestionsIncludesCountAndPrevious(t *testing.T) {
	got := Questions(models.KindMain, QuestionInput{
		ChunkText:         "CHUNK",
		Count:             3,
		PreviousQuestions: []string{"Why X?", "Why Y?"},
	})
	assert.Contains(t, got, "suggest 3 short questions")
	assert.Contains(t, got, "- Why X?\n- Why Y?")
	assert.Contains(t, got, "CHUNK")

	none := Questions(models.KindMain, QuestionInput{ChunkText: "CHUNK", Count: 3})
	assert.Contains(t, none, "(none)")
}

func TestQuestionsHighlightTemplate(t *testing.T) {
	got := Questions(models.KindHighlight, QuestionInput{
		ChunkText:     "CHUNK",
		HighlightText: "HIGHLIGHT",
		Count:         2,
	})
	assert.Contains(t, got, "HIGHLIGHT")
	assert.Contains(t, got, "CHUNK")
	assert.Contains(t, got, "2 short questions")
}

func TestSummaryLinearizesHistoryWithoutSystemTurns(t *testing.T) {
	got := Summary(SummaryInput{
		HighlightText: "HIGHLIGHT",
		ConversationHistory: []models.ChatMessage{
			{Role: models.RoleSystem, Content: "system setup"},
			{Role: models.RoleUser, Content: "what is this?"},
			{Role: models.RoleAssistant, Content: "an example"},
		},
	})
	assert.Contains(t, got, "user: what is this?")
	assert.Contains(t, got, "assistant: an example")
	assert.NotContains(t, got, "system setup")
	assert.Contains(t, got, "HIGHLIGHT")
}

func TestSummaryEmptyHistory(t *testing.T) {
	got := Summary(SummaryInput{HighlightText: "H"})
	assert.Contains(t, got, "(no discussion)")
}
