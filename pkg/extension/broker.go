// Package extension provides the event brokers used to notify scripts and other components of
// message activity.
package extension

import (
	"slices"
	"sync"
)

type namedListener[F any] struct {
	name string
	fn   F
}

// listenerList is an ordered set of uniquely named listeners.
type listenerList[F any] []namedListener[F]

// put adds or replaces the named listener, it is always moved to the end of the list.
func (l listenerList[F]) put(name string, fn F) listenerList[F] {
	l = l.remove(name)
	return append(l, namedListener[F]{name: name, fn: fn})
}

func (l listenerList[F]) remove(name string) listenerList[F] {
	return slices.DeleteFunc(l, func(e namedListener[F]) bool { return e.name == name })
}

func (l listenerList[F]) names() []string {
	names := make([]string, len(l))
	for i, e := range l {
		names[i] = e.name
	}
	return names
}

// EventBroker maintains a list of listeners interested in a specific type of event.  Listeners
// are called synchronously, in the order they were added.
type EventBroker[E any, R any] struct {
	mu        sync.RWMutex
	listeners listenerList[func(E) *R]
}

// Emit sends the provided event to each registered listener in order, until one returns a
// non-nil result.  That result is returned to the caller.
func (eb *EventBroker[E, R]) Emit(event *E) *R {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, l := range eb.listeners {
		// Listeners receive a copy of the event.
		if result := l.fn(*event); result != nil {
			return result
		}
	}

	return nil
}

// AddListener registers the named listener, replacing one with a duplicate name if present.
func (eb *EventBroker[E, R]) AddListener(name string, listener func(E) *R) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.listeners = eb.listeners.put(name, listener)
}

// RemoveListener unregisters the named listener.
func (eb *EventBroker[E, R]) RemoveListener(name string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.listeners = eb.listeners.remove(name)
}

// Listeners returns the names of registered listeners, in call order.
func (eb *EventBroker[E, R]) Listeners() []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return eb.listeners.names()
}
