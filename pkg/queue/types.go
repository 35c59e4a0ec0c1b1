// Package queue runs event-triggered work on a bounded FIFO scheduler.
// Session handlers never touch the database directly: they emit request
// events, and the scheduler executes the registered task for each request
// under a per-task deadline with a fresh database session.
package queue

import (
	"context"
	"errors"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/events"
)

// ErrQueueFull is returned by enqueue when the scheduler FIFO is saturated.
var ErrQueueFull = errors.New("scheduler queue full")

// TaskHandler executes one unit of work for a request event. The client is
// bound to a transaction opened for this task only; the scheduler commits on
// nil return and rolls back otherwise. Returned errors are converted into the
// request's .error event.
type TaskHandler func(ctx context.Context, client *ent.Client, evt events.Event) error

// TaskSession is one task's database session. Commit and Rollback are
// idempotent in the sense that Rollback after Commit is a no-op error that
// callers discard.
type TaskSession interface {
	Client() *ent.Client
	Commit() error
	Rollback() error
}

// SessionFactory opens a fresh TaskSession per task.
type SessionFactory interface {
	NewSession(ctx context.Context) (TaskSession, error)
}

type task struct {
	handler TaskHandler
	event   events.Event
}
