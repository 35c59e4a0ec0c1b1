// Package prompt composes the deterministic LLM prompt text used by the
// conversation engine. All functions are pure; state comes from parameters.
package prompt

import (
	"strconv"
	"strings"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

// SystemInput carries the document context for a system prompt.
type SystemInput struct {
	ChunkText        string
	HighlightText    string
	FullDocumentText string
}

// System returns the system prompt for a conversation kind and context mode.
func System(kind models.ConversationKind, mode models.ContextMode, in SystemInput) string {
	var tmpl string
	switch {
	case mode == models.ContextFull && kind == models.KindHighlight:
		tmpl = systemFullContextHighlightTemplate
	case mode == models.ContextFull:
		tmpl = systemFullContextMainTemplate
	case kind == models.KindHighlight:
		tmpl = systemHighlightTemplate
	default:
		tmpl = systemMainTemplate
	}
	return fill(tmpl, map[string]string{
		"chunk_text":         in.ChunkText,
		"highlight_text":     in.HighlightText,
		"full_document_text": in.FullDocumentText,
	})
}

// User returns the user-turn prompt wrapping the raw user message.
func User(kind models.ConversationKind, userMessage string) string {
	tmpl := userMainTemplate
	if kind == models.KindHighlight {
		tmpl = userHighlightTemplate
	}
	return fill(tmpl, map[string]string{
		"user_message": userMessage,
	})
}

// QuestionInput carries the context for a question-generation prompt.
type QuestionInput struct {
	ChunkText         string
	HighlightText     string
	Count             int
	PreviousQuestions []string
}

// Questions returns the question-generation prompt for a conversation kind.
func Questions(kind models.ConversationKind, in QuestionInput) string {
	tmpl := questionMainTemplate
	if kind == models.KindHighlight {
		tmpl = questionHighlightTemplate
	}
	previous := "(none)"
	if len(in.PreviousQuestions) > 0 {
		previous = "- " + strings.Join(in.PreviousQuestions, "\n- ")
	}
	return fill(tmpl, map[string]string{
		"chunk_text":         in.ChunkText,
		"highlight_text":     in.HighlightText,
		"count":              strconv.Itoa(in.Count),
		"previous_questions": previous,
	})
}

// SummaryInput carries the highlight discussion for a merge summary prompt.
type SummaryInput struct {
	HighlightText       string
	ConversationHistory []models.ChatMessage
}

// Summary returns the merge-summary prompt over a linearized highlight
// discussion. System messages are elided from the transcript.
func Summary(in SummaryInput) string {
	var sb strings.Builder
	for _, msg := range in.ConversationHistory {
		if msg.Role == models.RoleSystem {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
	}
	history := sb.String()
	if history == "" {
		history = "(no discussion)"
	}
	return fill(summaryTemplate, map[string]string{
		"highlight_text":       in.HighlightText,
		"conversation_history": history,
	})
}

func fill(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, 2*len(values))
	for key, val := range values {
		pairs = append(pairs, "{"+key+"}", val)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
