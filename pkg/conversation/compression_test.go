package conversation

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

func testChunkText(chunkID string) (string, bool) {
	n, err := strconv.Atoi(chunkID)
	if err != nil || n < 0 || n > 3 {
		return "", false
	}
	return "text-" + chunkID, true
}

func userTurn(content, chunk string) HistoryMessage {
	return HistoryMessage{Role: models.RoleUser, Content: content, Chunk: chunk}
}

func assistantTurn(content, chunk string) HistoryMessage {
	return HistoryMessage{Role: models.RoleAssistant, Content: content, Chunk: chunk}
}

// The canonical scenario: messages against chunks 0,1,1,3,2 yield four
// synthetic switches (initial 0, forward 0-1, forward 1-3, backward 2), with
// each chunk's text inlined exactly once on its most recent relevant switch.
func TestCompressHistoryChunkSwitchScenario(t *testing.T) {
	history := []HistoryMessage{
		{Role: models.RoleSystem, Content: "system setup"},
		userTurn("q0", "0"), assistantTurn("a0", "0"),
		userTurn("q1", "1"), assistantTurn("a1", "1"),
		userTurn("q1b", "1"), assistantTurn("a1b", "1"),
		userTurn("q3", "3"), assistantTurn("a3", "3"),
		userTurn("q2", "2"), assistantTurn("a2", "2"),
	}

	out := CompressHistory(history, testChunkText)

	var switches []string
	for _, msg := range out {
		if msg.Role == models.RoleUser && strings.HasPrefix(msg.Content, "<switched") {
			switches = append(switches, msg.Content)
		}
	}
	require.Len(t, switches, 4)
	assert.True(t, strings.HasPrefix(switches[0], "<switched to chunks 0-0>"))
	assert.True(t, strings.HasPrefix(switches[1], "<switched to chunks 0-1>"))
	assert.True(t, strings.HasPrefix(switches[2], "<switched to chunks 1-3>"))
	assert.True(t, strings.HasPrefix(switches[3], "<switched to chunk ID 2>"))

	// Latest relevant switch carries the text: 0 on the 0-1 switch, 1 and 3
	// on the 1-3 switch, 2 on the backward switch.
	assert.NotContains(t, switches[0], "chunkText")
	assert.Contains(t, switches[1], "Chunk 0: text-0")
	assert.Contains(t, switches[2], "Chunk 1: text-1")
	assert.Contains(t, switches[2], "Chunk 3: text-3")
	assert.Contains(t, switches[3], "Chunk 2: text-2")

	// No chunk text appears twice anywhere in the assembled input.
	full := ""
	for _, msg := range out {
		full += msg.Content + "\n"
	}
	for i := 0; i <= 3; i++ {
		marker := "text-" + strconv.Itoa(i)
		assert.Equal(t, 1, strings.Count(full, marker), "chunk %d text must appear exactly once", i)
	}

	// Original messages survive verbatim and in order.
	var contents []string
	for _, msg := range out {
		if !strings.HasPrefix(msg.Content, "<") {
			contents = append(contents, msg.Content)
		}
	}
	assert.Equal(t, []string{"system setup", "q0", "a0", "q1", "a1", "q1b", "a1b", "q3", "a3", "q2", "a2"}, contents)
}

func TestCompressHistoryEveryMarkerHasAcknowledgement(t *testing.T) {
	history := []HistoryMessage{
		userTurn("q0", "0"), assistantTurn("a0", "0"),
		userTurn("q2", "2"), assistantTurn("a2", "2"),
	}
	out := CompressHistory(history, testChunkText)

	for i, msg := range out {
		if msg.Role == models.RoleUser && strings.HasPrefix(msg.Content, "<switched") {
			require.Less(t, i+1, len(out))
			ack := out[i+1]
			assert.Equal(t, models.RoleAssistant, ack.Role)
			assert.True(t, strings.HasPrefix(ack.Content, "<acknowledged switch"))
		}
	}
}

func TestCompressHistorySingleChunkGetsOneSwitch(t *testing.T) {
	history := []HistoryMessage{
		userTurn("q", "1"), assistantTurn("a", "1"),
		userTurn("q2", "1"), assistantTurn("a2", "1"),
	}
	out := CompressHistory(history, testChunkText)

	// One initial switch covering 0..1, then the four original messages.
	require.Len(t, out, 6)
	assert.Contains(t, out[0].Content, "<switched to chunks 0-1>")
	assert.Contains(t, out[0].Content, "Chunk 0: text-0")
	assert.Contains(t, out[0].Content, "Chunk 1: text-1")
}

func TestCompressHistoryIgnoresMessagesWithoutChunkContext(t *testing.T) {
	history := []HistoryMessage{
		{Role: models.RoleSystem, Content: "system setup"},
		userTurn("merged summary", ""),
		assistantTurn("Acknowledged conversation merge", ""),
	}
	out := CompressHistory(history, testChunkText)
	require.Len(t, out, 3)
	assert.Equal(t, "system setup", out[0].Content)
}

func TestCompressHistoryUnknownChunkTextSkipped(t *testing.T) {
	history := []HistoryMessage{
		userTurn("q", "9"), assistantTurn("a", "9"),
	}
	noText := func(string) (string, bool) { return "", false }
	out := CompressHistory(history, noText)
	// Switch markers are inserted even when no text can be resolved.
	require.Len(t, out, 4)
	assert.Equal(t, "<switched to chunks 0-9>", out[0].Content)
}
