package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatchToAddressedConnection(t *testing.T) {
	reg := NewRegistry(16, 50*time.Millisecond)
	conn := reg.Connect("conn-1", "doc-1", ScopeConversation)
	reg.Subscribe("conn-1", "conversation.list.completed")

	reg.Dispatch(Event{
		Type:         "conversation.list.completed",
		DocumentID:   "doc-1",
		ConnectionID: "conn-1",
		RequestID:    "r1",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	evt, ok := conn.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "r1", evt.RequestID)
}

func TestRegistryDispatchFiltersByDocumentAndType(t *testing.T) {
	reg := NewRegistry(16, 50*time.Millisecond)
	conn := reg.Connect("conn-1", "doc-1", ScopeDocument)
	reg.Subscribe("conn-1", "document.metadata.completed")

	// Wrong document.
	reg.Dispatch(Event{Type: "document.metadata.completed", DocumentID: "doc-2", ConnectionID: "conn-1"})
	// Unsubscribed type.
	reg.Dispatch(Event{Type: "chat.token", DocumentID: "doc-1", ConnectionID: "conn-1"})
	// No connection address.
	reg.Dispatch(Event{Type: "document.metadata.completed", DocumentID: "doc-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, ok := conn.Next(ctx)
	assert.False(t, ok)
}

func TestRegistryDispatchDropsOnFullQueue(t *testing.T) {
	reg := NewRegistry(1, 20*time.Millisecond)
	conn := reg.Connect("conn-1", "doc-1", ScopeConversation)
	reg.Subscribe("conn-1", "chat.token")

	// Nobody draining: first fills the queue, second must be dropped after
	// the put timeout rather than blocking the dispatcher forever.
	reg.Dispatch(Event{Type: "chat.token", DocumentID: "doc-1", ConnectionID: "conn-1", RequestID: "r1"})

	start := time.Now()
	reg.Dispatch(Event{Type: "chat.token", DocumentID: "doc-1", ConnectionID: "conn-1", RequestID: "r2"})
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	evt, ok := conn.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "r1", evt.RequestID)

	shortCtx, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	_, ok = conn.Next(shortCtx)
	assert.False(t, ok)
}

func TestRegistryDisconnectWakesNext(t *testing.T) {
	reg := NewRegistry(16, 50*time.Millisecond)
	conn := reg.Connect("conn-1", "doc-1", ScopeConversation)

	done := make(chan bool, 1)
	go func() {
		_, ok := conn.Next(context.Background())
		done <- ok
	}()

	reg.Disconnect("conn-1")

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Next never returned after disconnect")
	}

	assert.Zero(t, reg.ActiveConnections())
	// Idempotent.
	assert.NotPanics(t, func() { reg.Disconnect("conn-1") })
}

func TestRegistryAttachFansOutBusEvents(t *testing.T) {
	bus := NewBus(64)
	bus.Initialize(context.Background())
	defer bus.Shutdown()

	reg := NewRegistry(16, 50*time.Millisecond)
	reg.Attach(bus)

	conn := reg.Connect("conn-1", "doc-1", ScopeConversation)
	reg.Subscribe("conn-1", "conversation.messages.completed")

	require.NoError(t, bus.Emit(Event{
		Type:         "conversation.messages.completed",
		DocumentID:   "doc-1",
		ConnectionID: "conn-1",
		RequestID:    "r9",
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	evt, ok := conn.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "r9", evt.RequestID)
}

func TestRegistrySubscribeUnknownConnectionIsNoop(t *testing.T) {
	reg := NewRegistry(16, 50*time.Millisecond)
	assert.NotPanics(t, func() { reg.Subscribe("ghost", "chat.token") })
}
