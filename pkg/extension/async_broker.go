package extension

import (
	"errors"
	"sync"
	"time"
)

// AsyncEventBroker maintains a list of listeners interested in a specific type of event.  Events
// are sent to all listeners in parallel, and no result is returned.
type AsyncEventBroker[E any] struct {
	mu        sync.RWMutex
	listeners listenerList[func(E)]
}

// Emit sends the provided event to each registered listener on its own goroutine.
func (eb *AsyncEventBroker[E]) Emit(event *E) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, l := range eb.listeners {
		go l.fn(*event)
	}
}

// AddListener registers the named listener, replacing one with a duplicate name if present.
func (eb *AsyncEventBroker[E]) AddListener(name string, listener func(E)) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.listeners = eb.listeners.put(name, listener)
}

// RemoveListener unregisters the named listener.
func (eb *AsyncEventBroker[E]) RemoveListener(name string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.listeners = eb.listeners.remove(name)
}

// Listeners returns the names of registered listeners.
func (eb *AsyncEventBroker[E]) Listeners() []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return eb.listeners.names()
}

// ErrListenerTimeout is returned by AsyncTestListener when no event arrives in time.
var ErrListenerTimeout = errors.New("timeout waiting for event")

// AsyncTestListener registers a listener that buffers up to capacity events, and returns a func
// that waits for the next one.  After capacity events have been received the listener removes
// itself.
func (eb *AsyncEventBroker[E]) AsyncTestListener(name string, capacity int) func() (*E, error) {
	events := make(chan E, capacity)
	eb.AddListener(name, func(e E) { events <- e })

	received := 0
	return func() (*E, error) {
		received++
		if received >= capacity {
			defer eb.RemoveListener(name)
		}

		select {
		case e := <-events:
			return &e, nil
		case <-time.After(2 * time.Second):
			return nil, ErrListenerTimeout
		}
	}
}
