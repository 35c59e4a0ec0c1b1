package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scope distinguishes the two WebSocket endpoints a client can open for a
// document.
type Scope string

// Connection scopes.
const (
	ScopeDocument     Scope = "document"
	ScopeConversation Scope = "conversation"
)

// Connection is one live WebSocket session's registry entry: its identity,
// its event-type filter, and its bounded outbound queue. The session handler
// that owns the socket drains the queue via Next.
type Connection struct {
	ID         string
	DocumentID string
	Scope      Scope

	mu    sync.RWMutex
	types map[string]bool

	queue chan Event
	done  chan struct{}
}

// subscribed reports whether the connection's filter admits an event type.
func (c *Connection) subscribed(eventType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.types[eventType]
}

// Next blocks until the next outbound event for this connection, the context
// is cancelled, or the connection is disconnected.
func (c *Connection) Next(ctx context.Context) (Event, bool) {
	select {
	case evt := <-c.queue:
		return evt, true
	case <-c.done:
		return Event{}, false
	case <-ctx.Done():
		return Event{}, false
	}
}

// Registry holds all live WebSocket sessions indexed by connection id and by
// (document, scope). Its Dispatch method is the bus's wildcard listener.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	queueCapacity int
	putTimeout    time.Duration
}

// NewRegistry creates a registry whose per-connection queues hold
// queueCapacity events; enqueue attempts give up after putTimeout.
func NewRegistry(queueCapacity int, putTimeout time.Duration) *Registry {
	return &Registry{
		conns:         make(map[string]*Connection),
		queueCapacity: queueCapacity,
		putTimeout:    putTimeout,
	}
}

// Attach registers the registry as the bus's wildcard listener.
func (r *Registry) Attach(bus *Bus) Subscription {
	return bus.On(Wildcard, func(_ context.Context, evt Event) {
		r.Dispatch(evt)
	})
}

// Connect indexes a new session and creates its outbound queue.
func (r *Registry) Connect(connID, documentID string, scope Scope) *Connection {
	c := &Connection{
		ID:         connID,
		DocumentID: documentID,
		Scope:      scope,
		types:      make(map[string]bool),
		queue:      make(chan Event, r.queueCapacity),
		done:       make(chan struct{}),
	}
	r.mu.Lock()
	r.conns[connID] = c
	r.mu.Unlock()
	return c
}

// Subscribe adds event types to a connection's filter. Unknown connections
// are ignored (the session may have raced a disconnect).
func (r *Registry) Subscribe(connID string, eventTypes ...string) {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	c.mu.Lock()
	for _, t := range eventTypes {
		c.types[t] = true
	}
	c.mu.Unlock()
}

// Dispatch routes one event to the originating connection's queue. Events are
// delivered only to the connection addressed by evt.ConnectionID, and only if
// that connection belongs to the event's document and has subscribed to the
// event type. On a full queue the put is abandoned after the configured
// timeout and the event is dropped for that connection.
func (r *Registry) Dispatch(evt Event) {
	if evt.ConnectionID == "" {
		return
	}

	r.mu.RLock()
	c, ok := r.conns[evt.ConnectionID]
	r.mu.RUnlock()
	if !ok || c.DocumentID != evt.DocumentID || !c.subscribed(evt.Type) {
		return
	}

	select {
	case c.queue <- evt:
		return
	case <-c.done:
		return
	default:
	}

	// Queue full — wait up to putTimeout for the consumer to catch up.
	timer := time.NewTimer(r.putTimeout)
	defer timer.Stop()
	select {
	case c.queue <- evt:
	case <-c.done:
	case <-timer.C:
		slog.Warn("Per-connection queue full, dropping event",
			"kind", KindQueueFull,
			"connection_id", c.ID,
			"type", evt.Type,
			"document_id", evt.DocumentID)
	}
}

// Disconnect removes a session's indexes and releases its queue. Idempotent.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	// Signal the owner and any in-flight Dispatch, then drain what's queued
	// so buffered events don't pin memory.
	close(c.done)
	for {
		select {
		case <-c.queue:
		default:
			return
		}
	}
}

// ActiveConnections returns the count of live sessions.
func (r *Registry) ActiveConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
