package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/events"
)

// Scheduler pulls tasks off a bounded FIFO and runs each in its own
// goroutine with a per-task deadline and a fresh database session.
// Engines register their handlers through Wrap, which turns a TaskHandler
// into a bus listener that only enqueues.
type Scheduler struct {
	bus      *events.Bus
	sessions SessionFactory
	cfg      *config.SchedulerConfig

	queue chan task

	mu     sync.Mutex
	active map[string]context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	loopDone  chan struct{}
	tasks     sync.WaitGroup
}

// NewScheduler creates a scheduler. The bus is used only for emitting
// terminal .error events on behalf of failed tasks.
func NewScheduler(bus *events.Bus, sessions SessionFactory, cfg *config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		bus:      bus,
		sessions: sessions,
		cfg:      cfg,
		queue:    make(chan task, cfg.QueueCapacity),
		active:   make(map[string]context.CancelFunc),
		loopDone: make(chan struct{}),
	}
}

// Wrap adapts a TaskHandler into a bus handler that enqueues the event as a
// task. The bus handler itself never blocks: a saturated scheduler rejects
// the request with a BUS_OVERFLOW error event.
func (s *Scheduler) Wrap(h TaskHandler) events.Handler {
	return func(_ context.Context, evt events.Event) {
		if err := s.enqueue(task{handler: h, event: evt}); err != nil {
			slog.Warn("Scheduler queue full, rejecting request",
				"type", evt.Type,
				"document_id", evt.DocumentID,
				"request_id", evt.RequestID)
			s.emitError(evt, events.ErrorData{
				Kind:    events.KindBusOverflow,
				Message: "server busy, try again",
			})
		}
	}
}

func (s *Scheduler) enqueue(t task) error {
	select {
	case s.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the dispatch loop. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.run(runCtx)
		slog.Info("Scheduler started",
			"queue_capacity", s.cfg.QueueCapacity,
			"task_timeout", s.cfg.TaskTimeout)
	})
}

// Stop cancels all active tasks, stops the dispatch loop, and waits for
// in-flight tasks to unwind. Pending queued tasks are discarded.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		n := len(s.active)
		for _, cancel := range s.active {
			cancel()
		}
		s.mu.Unlock()
		if n > 0 {
			slog.Info("Cancelling active tasks", "count", n)
		}

		if s.cancel != nil {
			s.cancel()
		}
		<-s.loopDone
		s.tasks.Wait()
		slog.Info("Scheduler stopped")
	})
}

// ActiveTasks returns the count of tasks currently executing.
func (s *Scheduler) ActiveTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			s.launch(ctx, t)
		}
	}
}

func (s *Scheduler) launch(ctx context.Context, t task) {
	taskID := uuid.NewString()
	taskCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)

	s.mu.Lock()
	s.active[taskID] = cancel
	s.mu.Unlock()

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer cancel()
		defer func() {
			s.mu.Lock()
			delete(s.active, taskID)
			s.mu.Unlock()
		}()
		s.execute(taskCtx, t)
	}()
}

// execute runs one task inside its own database session. The session is
// committed only when the handler returns nil; any failure rolls back and
// surfaces as the request's .error event.
func (s *Scheduler) execute(ctx context.Context, t task) {
	log := slog.With("type", t.event.Type,
		"document_id", t.event.DocumentID,
		"request_id", t.event.RequestID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Task panicked", "panic", r)
			s.emitError(t.event, events.ErrorData{
				Kind:    events.KindInternal,
				Message: "internal error",
			})
		}
	}()

	session, err := s.sessions.NewSession(ctx)
	if err != nil {
		log.Error("Failed to open task session", "error", err)
		s.emitError(t.event, events.ErrorData{
			Kind:    events.KindUpstreamDB,
			Message: "database unavailable",
		})
		return
	}

	if err := t.handler(ctx, session.Client(), t.event); err != nil {
		_ = session.Rollback()
		data := events.AsErrorData(err)
		if data.Kind == events.KindTimeout {
			log.Warn("Task deadline exceeded", "timeout", s.cfg.TaskTimeout)
		} else {
			log.Error("Task failed", "kind", data.Kind, "error", err)
		}
		s.emitError(t.event, data)
		return
	}

	if err := session.Commit(); err != nil {
		log.Error("Failed to commit task session", "error", err)
		s.emitError(t.event, events.ErrorData{
			Kind:    events.KindUpstreamDB,
			Message: "failed to persist changes",
		})
	}
}

// emitError publishes the terminal .error event for a request. Emission
// failures at this point can only be logged.
func (s *Scheduler) emitError(evt events.Event, data events.ErrorData) {
	err := s.bus.Emit(events.Event{
		Type:         events.Errored(evt.Type),
		DocumentID:   evt.DocumentID,
		ConnectionID: evt.ConnectionID,
		RequestID:    evt.RequestID,
		Data:         data,
	})
	if err != nil {
		slog.Error("Failed to emit task error event",
			"type", evt.Type, "error", fmt.Errorf("emitting error event: %w", err))
	}
}
