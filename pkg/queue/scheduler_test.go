package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/ent"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/events"
)

// fakeSessions satisfies SessionFactory without a database.
type fakeSessions struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
	openErr   error
}

func (f *fakeSessions) NewSession(_ context.Context) (TaskSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeSession{factory: f}, nil
}

func (f *fakeSessions) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits, f.rollbacks
}

type fakeSession struct {
	factory *fakeSessions
}

func (s *fakeSession) Client() *ent.Client { return nil }

func (s *fakeSession) Commit() error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	s.factory.commits++
	return nil
}

func (s *fakeSession) Rollback() error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	s.factory.rollbacks++
	return nil
}

func newTestScheduler(t *testing.T, sessions SessionFactory, cfg config.SchedulerConfig) (*Scheduler, *events.Bus) {
	t.Helper()
	bus := events.NewBus(64)
	bus.Initialize(context.Background())
	t.Cleanup(bus.Shutdown)

	sched := NewScheduler(bus, sessions, &cfg)
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)
	return sched, bus
}

func collectErrors(bus *events.Bus, requestType string) <-chan events.Event {
	out := make(chan events.Event, 8)
	bus.On(events.Errored(requestType), func(_ context.Context, evt events.Event) {
		out <- evt
	})
	return out
}

func TestSchedulerRunsTaskAndCommits(t *testing.T) {
	sessions := &fakeSessions{}
	sched, _ := newTestScheduler(t, sessions, config.SchedulerConfig{
		TaskTimeout:   time.Second,
		QueueCapacity: 8,
	})

	ran := make(chan events.Event, 1)
	handler := sched.Wrap(func(_ context.Context, _ *ent.Client, evt events.Event) error {
		ran <- evt
		return nil
	})

	handler(context.Background(), events.Event{
		Type:       "document.metadata.requested",
		DocumentID: "doc-1",
		RequestID:  "r1",
	})

	select {
	case evt := <-ran:
		assert.Equal(t, "r1", evt.RequestID)
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}

	require.Eventually(t, func() bool {
		commits, _ := sessions.counts()
		return commits == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerRollsBackAndEmitsErrorOnFailure(t *testing.T) {
	sessions := &fakeSessions{}
	sched, bus := newTestScheduler(t, sessions, config.SchedulerConfig{
		TaskTimeout:   time.Second,
		QueueCapacity: 8,
	})
	errs := collectErrors(bus, "conversation.list.requested")

	handler := sched.Wrap(func(_ context.Context, _ *ent.Client, _ events.Event) error {
		return events.NewError(events.KindNotFound, "conversation not found")
	})
	handler(context.Background(), events.Event{
		Type:         "conversation.list.requested",
		DocumentID:   "doc-1",
		ConnectionID: "conn-1",
		RequestID:    "r2",
	})

	select {
	case evt := <-errs:
		assert.Equal(t, "conversation.list.error", evt.Type)
		assert.Equal(t, "conn-1", evt.ConnectionID)
		assert.Equal(t, "r2", evt.RequestID)
		data, ok := evt.Data.(events.ErrorData)
		require.True(t, ok)
		assert.Equal(t, events.KindNotFound, data.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}

	commits, rollbacks := sessions.counts()
	assert.Zero(t, commits)
	assert.Equal(t, 1, rollbacks)
}

func TestSchedulerEmitsTimeoutWhenDeadlineExceeded(t *testing.T) {
	sessions := &fakeSessions{}
	sched, bus := newTestScheduler(t, sessions, config.SchedulerConfig{
		TaskTimeout:   30 * time.Millisecond,
		QueueCapacity: 8,
	})
	errs := collectErrors(bus, "conversation.message.send.requested")

	handler := sched.Wrap(func(ctx context.Context, _ *ent.Client, _ events.Event) error {
		<-ctx.Done()
		return ctx.Err()
	})
	handler(context.Background(), events.Event{
		Type:      "conversation.message.send.requested",
		RequestID: "r3",
	})

	select {
	case evt := <-errs:
		data, ok := evt.Data.(events.ErrorData)
		require.True(t, ok)
		assert.Equal(t, events.KindTimeout, data.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no timeout error event")
	}
}

func TestSchedulerRejectsWhenQueueFull(t *testing.T) {
	sessions := &fakeSessions{}
	bus := events.NewBus(64)
	bus.Initialize(context.Background())
	t.Cleanup(bus.Shutdown)
	errs := collectErrors(bus, "document.chunk.list.requested")

	// Not started: nothing drains the queue.
	sched := NewScheduler(bus, sessions, &config.SchedulerConfig{
		TaskTimeout:   time.Second,
		QueueCapacity: 1,
	})

	handler := sched.Wrap(func(_ context.Context, _ *ent.Client, _ events.Event) error {
		return nil
	})
	handler(context.Background(), events.Event{Type: "document.chunk.list.requested", RequestID: "r4"})
	handler(context.Background(), events.Event{Type: "document.chunk.list.requested", RequestID: "r5"})

	select {
	case evt := <-errs:
		assert.Equal(t, "r5", evt.RequestID)
		data, ok := evt.Data.(events.ErrorData)
		require.True(t, ok)
		assert.Equal(t, events.KindBusOverflow, data.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no overflow error event")
	}
}

func TestSchedulerEmitsUpstreamDBWhenSessionOpenFails(t *testing.T) {
	sessions := &fakeSessions{openErr: errors.New("connection refused")}
	sched, bus := newTestScheduler(t, sessions, config.SchedulerConfig{
		TaskTimeout:   time.Second,
		QueueCapacity: 8,
	})
	errs := collectErrors(bus, "document.metadata.requested")

	handler := sched.Wrap(func(_ context.Context, _ *ent.Client, _ events.Event) error {
		t.Fatal("handler must not run without a session")
		return nil
	})
	handler(context.Background(), events.Event{Type: "document.metadata.requested", RequestID: "r6"})

	select {
	case evt := <-errs:
		data, ok := evt.Data.(events.ErrorData)
		require.True(t, ok)
		assert.Equal(t, events.KindUpstreamDB, data.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}
}

func TestSchedulerStopCancelsActiveTasks(t *testing.T) {
	sessions := &fakeSessions{}
	bus := events.NewBus(64)
	bus.Initialize(context.Background())
	t.Cleanup(bus.Shutdown)

	sched := NewScheduler(bus, sessions, &config.SchedulerConfig{
		TaskTimeout:   time.Minute,
		QueueCapacity: 8,
	})
	sched.Start(context.Background())

	started := make(chan struct{})
	cancelled := make(chan struct{})
	handler := sched.Wrap(func(ctx context.Context, _ *ent.Client, _ events.Event) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	handler(context.Background(), events.Event{Type: "conversation.merge.requested"})

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}
	assert.Equal(t, 1, sched.ActiveTasks())

	sched.Stop()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context never cancelled")
	}
	assert.Zero(t, sched.ActiveTasks())

	// Stop twice is fine.
	assert.NotPanics(t, sched.Stop)
}
