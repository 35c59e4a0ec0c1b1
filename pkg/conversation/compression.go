package conversation

import (
	"fmt"
	"strconv"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

// HistoryMessage is one stored message as seen by context assembly: its role,
// its content, and the chunk the user was reading when it was written.
type HistoryMessage struct {
	Role    models.ChatRole
	Content string
	Chunk   string
}

// ChunkTextFunc resolves a chunk sequence (as string) to its text.
type ChunkTextFunc func(chunkID string) (string, bool)

type switchMarker struct {
	// position in the output slice of the user-role switch message
	pos int
	// chunk sequences this switch represents, in ascending order
	chunks []int
}

// CompressHistory rewrites a main conversation's history with synthetic
// chunk-switch markers. Whenever consecutive messages were written against
// different chunks, a user/assistant marker pair is inserted before the later
// message. A second pass walks the switches in reverse and inlines each
// chunk's text exactly once, on the most recent switch that represents it.
func CompressHistory(history []HistoryMessage, chunkText ChunkTextFunc) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history)+8)
	var switches []switchMarker

	lastChunk := -1
	for _, msg := range history {
		cur, ok := parseChunk(msg.Chunk)
		if ok && cur != lastChunk {
			marker := buildSwitch(lastChunk, cur)
			switches = append(switches, switchMarker{pos: len(out), chunks: marker.chunks})
			out = append(out,
				models.ChatMessage{Role: models.RoleUser, Content: marker.user},
				models.ChatMessage{Role: models.RoleAssistant, Content: marker.assistant},
			)
			lastChunk = cur
		}
		out = append(out, models.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	inlineChunkTexts(out, switches, chunkText)
	return out
}

type builtSwitch struct {
	user      string
	assistant string
	chunks    []int
}

// buildSwitch renders the marker pair for a chunk transition. Forward moves
// (and the very first chunk) cover the whole range last..new; backward jumps
// cover only the target chunk.
func buildSwitch(last, next int) builtSwitch {
	if last < 0 {
		// No prior chunk: treat as forward from 0.
		return builtSwitch{
			user:      fmt.Sprintf("<switched to chunks %d-%d>", 0, next),
			assistant: fmt.Sprintf("<acknowledged switch to chunks %d-%d>", 0, next),
			chunks:    chunkRange(0, next),
		}
	}
	if next > last {
		return builtSwitch{
			user:      fmt.Sprintf("<switched to chunks %d-%d>", last, next),
			assistant: fmt.Sprintf("<acknowledged switch to chunks %d-%d>", last, next),
			chunks:    chunkRange(last, next),
		}
	}
	return builtSwitch{
		user:      fmt.Sprintf("<switched to chunk ID %d>", next),
		assistant: fmt.Sprintf("<acknowledged switch to chunk %d>", next),
		chunks:    []int{next},
	}
}

// inlineChunkTexts walks the switches newest-first and appends each
// represented chunk's text to the switch's user marker, skipping chunks
// already inlined by a later switch. Every chunk's text appears at most once.
func inlineChunkTexts(out []models.ChatMessage, switches []switchMarker, chunkText ChunkTextFunc) {
	inlined := make(map[int]bool)
	for i := len(switches) - 1; i >= 0; i-- {
		sw := switches[i]
		suffix := ""
		for _, chunk := range sw.chunks {
			if inlined[chunk] {
				continue
			}
			text, ok := chunkText(strconv.Itoa(chunk))
			if !ok {
				continue
			}
			inlined[chunk] = true
			if suffix == "" {
				suffix = fmt.Sprintf(", chunkText: Chunk %d: %s", chunk, text)
			} else {
				suffix += fmt.Sprintf(" | Chunk %d: %s", chunk, text)
			}
		}
		if suffix != "" {
			out[sw.pos].Content += suffix
		}
	}
}

func chunkRange(from, to int) []int {
	r := make([]int, 0, to-from+1)
	for c := from; c <= to; c++ {
		r = append(r, c)
	}
	return r
}

// chunkKey renders a chunk sequence the way it is stored on messages and
// conversations (as a string).
func chunkKey(seq int) string {
	return strconv.Itoa(seq)
}

func parseChunk(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
