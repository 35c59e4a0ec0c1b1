package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/events"
)

func TestFrameEventsByScope(t *testing.T) {
	conv := frameEvents(events.ScopeConversation)
	doc := frameEvents(events.ScopeDocument)

	assert.Equal(t, events.TypeMainCreateRequested, conv["conversation.main.create"])
	assert.Equal(t, events.TypeMergeRequested, conv["conversation.chunk.merge"])
	// The reader pane needs the chunk list too.
	assert.Equal(t, events.TypeDocChunkListRequested, conv["document.chunk.list"])

	assert.Equal(t, events.TypeDocNavigationRequested, doc["document.navigation"])
	assert.NotContains(t, doc, "conversation.message.send")
}

func TestSubscribedTypes(t *testing.T) {
	conv := subscribedTypes(events.ScopeConversation)
	assert.Contains(t, conv, "conversation.main.create.completed")
	assert.Contains(t, conv, "conversation.main.create.error")
	assert.Contains(t, conv, events.TypeChatToken)
	assert.Contains(t, conv, events.TypeChatCompleted)

	doc := subscribedTypes(events.ScopeDocument)
	assert.Contains(t, doc, "document.navigation.completed")
	assert.Contains(t, doc, "document.navigation.error")
	assert.NotContains(t, doc, events.TypeChatToken)
	assert.NotContains(t, doc, "conversation.message.send.completed")
}

func TestDecodeFrameData(t *testing.T) {
	data, err := decodeFrameData(json.RawMessage(`{"chunk_id":"3","count":5}`))
	require.NoError(t, err)
	assert.Equal(t, "3", data["chunk_id"])
	assert.Equal(t, float64(5), data["count"])

	data, err = decodeFrameData(nil)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)

	data, err = decodeFrameData(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.NotNil(t, data)

	_, err = decodeFrameData(json.RawMessage(`["not","an","object"]`))
	assert.Error(t, err)
}
