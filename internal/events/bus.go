package events

import (
	"context"
	"log/slog"
	"sync"
)

// Listener receives published events. Implementations must tolerate being
// called from the publishing goroutine and should hand off slow work
// themselves; Publish waits for each listener to return.
type Listener interface {
	HandleEvent(ctx context.Context, event Event) error
}

// Bus is the subscription registry for mutation events. Subscribe and
// Unsubscribe may be called at any time, including while a publish is in
// flight; the set is never observed half-updated, and once Unsubscribe
// returns the listener will not be invoked again.
type Bus struct {
	mu        sync.Mutex
	cond      *sync.Cond
	listeners []Listener
	inflight  map[Listener]int
	logger    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	b := &Bus{
		inflight: make(map[Listener]int),
		logger:   logger,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Subscribe registers listener for all subsequent publishes. Registering the
// same listener twice is a no-op, so repeated subscribe/unsubscribe cycles
// cannot leak or duplicate a registration.
func (b *Bus) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners {
		if l == listener {
			return
		}
	}
	b.listeners = append(b.listeners, listener)
}

// Unsubscribe removes listener and waits for any in-flight delivery to that
// listener to finish, so once Unsubscribe returns the listener is guaranteed
// not to be invoked again. A listener must not call Unsubscribe on itself
// from inside HandleEvent; that would deadlock.
func (b *Bus) Unsubscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l == listener {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			break
		}
	}
	for b.inflight[listener] > 0 {
		b.cond.Wait()
	}
}

// Publish synchronously delivers event to every listener registered at the
// moment of the call. Registration is re-checked per listener immediately
// before its delivery, so a concurrent Unsubscribe that has already returned
// wins over the in-flight publish. Each delivery is independent: a listener
// that errors or panics is logged and isolated, never affecting other
// listeners or the publisher — the mutation behind the event has already
// committed.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.Lock()
	snapshot := make([]Listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, listener := range snapshot {
		if !b.beginDelivery(listener) {
			continue
		}
		b.deliver(ctx, listener, event)
		b.endDelivery(listener)
	}
}

// beginDelivery marks listener as mid-delivery if it is still registered.
func (b *Bus) beginDelivery(listener Listener) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners {
		if l == listener {
			b.inflight[listener]++
			return true
		}
	}
	return false
}

func (b *Bus) endDelivery(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight[listener]--; b.inflight[listener] <= 0 {
		delete(b.inflight, listener)
	}
	b.cond.Broadcast()
}

func (b *Bus) deliver(ctx context.Context, listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event listener panicked",
				"event", event.Name,
				"task_id", event.TaskID,
				"panic", r,
			)
		}
	}()

	if err := listener.HandleEvent(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "event listener failed",
			"event", event.Name,
			"task_id", event.TaskID,
			"error", err,
		)
	}
}

// Len reports the current number of registered listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
