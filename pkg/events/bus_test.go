package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInEmissionOrder(t *testing.T) {
	bus := NewBus(64)
	bus.Initialize(context.Background())
	defer bus.Shutdown()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	bus.On("doc.created", func(_ context.Context, evt Event) {
		mu.Lock()
		got = append(got, evt.RequestID)
		if len(got) == 3 {
			close(done)
		}
		mu.Unlock()
	})

	require.NoError(t, bus.Emit(Event{Type: "doc.created", RequestID: "r1"}))
	require.NoError(t, bus.Emit(Event{Type: "doc.created", RequestID: "r2"}))
	require.NoError(t, bus.Emit(Event{Type: "doc.created", RequestID: "r3"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"r1", "r2", "r3"}, got)
}

func TestBusWildcardSeesEveryEvent(t *testing.T) {
	bus := NewBus(64)
	bus.Initialize(context.Background())
	defer bus.Shutdown()

	var mu sync.Mutex
	var types []string
	done := make(chan struct{})

	bus.On(Wildcard, func(_ context.Context, evt Event) {
		mu.Lock()
		types = append(types, evt.Type)
		if len(types) == 2 {
			close(done)
		}
		mu.Unlock()
	})

	require.NoError(t, bus.Emit(Event{Type: "a.requested"}))
	require.NoError(t, bus.Emit(Event{Type: "b.requested"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wildcard delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a.requested", "b.requested"}, types)
}

func TestBusWildcardRunsBeforeTypeListeners(t *testing.T) {
	bus := NewBus(16)
	bus.Initialize(context.Background())
	defer bus.Shutdown()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	bus.On(Wildcard, func(_ context.Context, _ Event) {
		mu.Lock()
		order = append(order, "wildcard")
		mu.Unlock()
	})
	bus.On("x", func(_ context.Context, _ Event) {
		mu.Lock()
		order = append(order, "typed")
		mu.Unlock()
		close(done)
	})

	require.NoError(t, bus.Emit(Event{Type: "x"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"wildcard", "typed"}, order)
}

func TestBusOverflowFailsFast(t *testing.T) {
	// No dispatcher running, so the queue never drains.
	bus := NewBus(2)

	require.NoError(t, bus.Emit(Event{Type: "a"}))
	require.NoError(t, bus.Emit(Event{Type: "b"}))

	start := time.Now()
	err := bus.Emit(Event{Type: "c"})
	assert.ErrorIs(t, err, ErrBusOverflow)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestBusHandlerPanicDoesNotKillDispatcher(t *testing.T) {
	bus := NewBus(16)
	bus.Initialize(context.Background())
	defer bus.Shutdown()

	done := make(chan struct{})

	bus.On("x", func(_ context.Context, _ Event) {
		panic("handler fault")
	})
	bus.On("x", func(_ context.Context, _ Event) {
		close(done)
	})

	require.NoError(t, bus.Emit(Event{Type: "x"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sibling handler never ran after panic")
	}
}

func TestBusOffRemovesHandler(t *testing.T) {
	bus := NewBus(16)
	bus.Initialize(context.Background())
	defer bus.Shutdown()

	var mu sync.Mutex
	removedCalls := 0
	done := make(chan struct{})

	sub := bus.On("x", func(_ context.Context, _ Event) {
		mu.Lock()
		removedCalls++
		mu.Unlock()
	})
	bus.On("x", func(_ context.Context, _ Event) {
		close(done)
	})

	bus.Off(sub)
	// Off twice is fine.
	bus.Off(sub)

	require.NoError(t, bus.Emit(Event{Type: "x"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, removedCalls)
}

func TestBusShutdownTwiceDoesNotPanic(t *testing.T) {
	bus := NewBus(4)
	bus.Initialize(context.Background())

	bus.Shutdown()
	assert.NotPanics(t, bus.Shutdown)
}

func TestCompletedAndErrored(t *testing.T) {
	assert.Equal(t, "conversation.list.completed", Completed(TypeConversationListRequested))
	assert.Equal(t, "conversation.list.error", Errored(TypeConversationListRequested))
	assert.Equal(t, "conversation.message.send.completed", Completed(TypeMessageSendRequested))

	// Types without the .requested suffix still get a terminal suffix.
	assert.Equal(t, "chat.token.completed", Completed(TypeChatToken))
}
