package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "taskhub/pkg/domain"
)

func testEvent() Event {
	return Event{
		TaskID:        id.NewTaskID(),
		Name:          EventStatusChanged,
		PreviousState: "To Do",
		NewState:      "In Progress",
		AuthorID:      id.UserID(id.NewTaskID()),
		OccurredAt:    time.Now(),
	}
}

type recordingListener struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (l *recordingListener) HandleEvent(_ context.Context, e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return l.err
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

type blockingListener struct {
	recordingListener
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *blockingListener) HandleEvent(ctx context.Context, e Event) error {
	l.once.Do(func() { close(l.started) })
	<-l.release
	return l.recordingListener.HandleEvent(ctx, e)
}

type panickingListener struct{}

func (panickingListener) HandleEvent(context.Context, Event) error {
	panic("listener exploded")
}

func newTestBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEventValidate(t *testing.T) {
	t.Run("accepts complete event", func(t *testing.T) {
		require.NoError(t, testEvent().Validate())
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		e := testEvent()
		e.TaskID = id.TaskID{}
		assert.Error(t, e.Validate())

		e = testEvent()
		e.AuthorID = id.UserID{}
		assert.Error(t, e.Validate())

		e = testEvent()
		e.Name = ""
		assert.Error(t, e.Validate())
	})
}

func TestBus_FanOut(t *testing.T) {
	bus := newTestBus()
	first := &recordingListener{}
	second := &recordingListener{}
	bus.Subscribe(first)
	bus.Subscribe(second)

	event := testEvent()
	bus.Publish(context.Background(), event)

	require.Equal(t, 1, first.count(), "each listener receives the event exactly once")
	require.Equal(t, 1, second.count())
	assert.Equal(t, event, first.events[0])
	assert.Equal(t, event, second.events[0])
}

func TestBus_SubscribeIsIdempotent(t *testing.T) {
	bus := newTestBus()
	l := &recordingListener{}
	bus.Subscribe(l)
	bus.Subscribe(l)

	require.Equal(t, 1, bus.Len())

	bus.Publish(context.Background(), testEvent())
	assert.Equal(t, 1, l.count(), "double subscribe must not duplicate delivery")
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := newTestBus()
	kept := &recordingListener{}
	removed := &recordingListener{}
	bus.Subscribe(kept)
	bus.Subscribe(removed)

	bus.Unsubscribe(removed)
	bus.Publish(context.Background(), testEvent())

	assert.Equal(t, 1, kept.count())
	assert.Equal(t, 0, removed.count(), "no event may reach a listener after its unsubscribe returned")
}

func TestBus_UnsubscribeDuringDispatchStopsDelivery(t *testing.T) {
	bus := newTestBus()
	slow := &blockingListener{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	removed := &recordingListener{}
	bus.Subscribe(slow)
	bus.Subscribe(removed)

	done := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), testEvent())
		close(done)
	}()

	// The publish is parked inside the first listener. Removing the second
	// one now must keep the in-flight event away from it.
	<-slow.started
	bus.Unsubscribe(removed)
	close(slow.release)
	<-done

	assert.Equal(t, 1, slow.count())
	assert.Equal(t, 0, removed.count(), "no event may reach a listener after its unsubscribe returned")
}

func TestBus_UnsubscribeWaitsForInFlightDelivery(t *testing.T) {
	bus := newTestBus()
	slow := &blockingListener{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	bus.Subscribe(slow)

	published := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), testEvent())
		close(published)
	}()
	<-slow.started

	unsubscribed := make(chan struct{})
	go func() {
		bus.Unsubscribe(slow)
		close(unsubscribed)
	}()

	select {
	case <-unsubscribed:
		t.Fatal("Unsubscribe returned while the listener was still handling an event")
	case <-time.After(50 * time.Millisecond):
	}

	close(slow.release)
	<-unsubscribed
	<-published
	assert.Equal(t, 1, slow.count())
}

func TestBus_ListenerFailureIsIsolated(t *testing.T) {
	bus := newTestBus()
	failing := &recordingListener{err: errors.New("sink down")}
	healthy := &recordingListener{}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	// Must not panic or skip the healthy listener.
	bus.Publish(context.Background(), testEvent())

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, healthy.count())
}

func TestBus_ListenerPanicIsIsolated(t *testing.T) {
	bus := newTestBus()
	healthy := &recordingListener{}
	bus.Subscribe(panickingListener{})
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent())
	})
	assert.Equal(t, 1, healthy.count())
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := newTestBus()
	stable := &recordingListener{}
	bus.Subscribe(stable)

	const publishes = 200
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < publishes; i++ {
			bus.Publish(context.Background(), testEvent())
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		churn := &recordingListener{}
		for i := 0; i < publishes; i++ {
			bus.Subscribe(churn)
			bus.Unsubscribe(churn)
		}
	}()

	wg.Wait()

	assert.Equal(t, publishes, stable.count(), "a continuously subscribed listener sees every publish")
	assert.Equal(t, 1, bus.Len())
}
