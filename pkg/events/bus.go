package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrBusOverflow is returned by Emit when the dispatcher FIFO is saturated.
// Emits never block: a full queue fails fast so callers can log and drop.
var ErrBusOverflow = errors.New("event bus overflow")

// Handler processes one event. Handlers for a type run in registration order,
// each awaited in turn by the single dispatcher worker. A handler must not
// block indefinitely; long work belongs on the service scheduler.
type Handler func(ctx context.Context, evt Event)

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	eventType string
	id        uint64
}

type listener struct {
	id      uint64
	handler Handler
}

// Bus is a single-process, ordered, asynchronous topic dispatcher.
// Listeners are keyed by exact event type plus the reserved Wildcard key.
// Within a single type, emission order equals delivery order; there is no
// cross-type ordering guarantee.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	nextID    uint64

	queue chan Event

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewBus creates a bus whose FIFO holds at most highWaterMark pending events.
func NewBus(highWaterMark int) *Bus {
	return &Bus{
		listeners: make(map[string][]listener),
		queue:     make(chan Event, highWaterMark),
		done:      make(chan struct{}),
	}
}

// On registers a handler for an event type (or Wildcard) and returns a
// subscription for Off. Registration order within a type is preserved.
func (b *Bus) On(eventType string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := Subscription{eventType: eventType, id: b.nextID}
	b.listeners[eventType] = append(b.listeners[eventType], listener{id: sub.id, handler: h})
	return sub
}

// Off unregisters a previously registered handler. Unknown subscriptions are
// ignored, so Off is idempotent.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[sub.eventType]
	for i, l := range ls {
		if l.id == sub.id {
			b.listeners[sub.eventType] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Emit enqueues an event and returns immediately. When the FIFO is at its
// high-water mark the emit fails fast with ErrBusOverflow; the event is
// dropped and the caller decides whether that is fatal.
func (b *Bus) Emit(evt Event) error {
	select {
	case b.queue <- evt:
		return nil
	default:
		slog.Warn("Event bus overflow, dropping event",
			"type", evt.Type, "document_id", evt.DocumentID)
		return ErrBusOverflow
	}
}

// Initialize starts the single dispatcher worker. Safe to call once.
func (b *Bus) Initialize(ctx context.Context) {
	b.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		b.cancel = cancel
		go b.dispatch(runCtx)
	})
}

// Shutdown stops the dispatcher worker and waits for it to exit. Events still
// in the FIFO are discarded.
func (b *Bus) Shutdown() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		<-b.done
	})
}

// dispatch is the single worker consuming the FIFO. It invokes the wildcard
// listeners first (registry fan-out), then the type-specific listeners, each
// awaited in registration order. A handler fault is logged and does not
// interrupt sibling handlers or the worker.
func (b *Bus) dispatch(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.queue:
			b.deliver(ctx, Wildcard, evt)
			b.deliver(ctx, evt.Type, evt)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, key string, evt Event) {
	b.mu.RLock()
	ls := make([]listener, len(b.listeners[key]))
	copy(ls, b.listeners[key])
	b.mu.RUnlock()

	for _, l := range ls {
		b.invoke(ctx, l, evt)
	}
}

func (b *Bus) invoke(ctx context.Context, l listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked",
				"type", evt.Type, "panic", r)
		}
	}()
	l.handler(ctx, evt)
}
