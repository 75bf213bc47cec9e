// Package msghub relays stored message metadata to monitor listeners.
package msghub

import (
	"context"
	"slices"

	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
)

// queueLen bounds the operations waiting for the hub goroutine.
const queueLen = 100

// Listener is notified of stored messages, starting with a replay of the hub's history, and of
// deletions.  A listener returning an error is dropped by the hub.
type Listener interface {
	Receive(msg event.MessageMetadata) error
	Delete(id string) error
}

// Hub is an actor: all state is owned by the goroutine running Start, other methods enqueue work
// for it.
type Hub struct {
	limit     int
	history   []event.MessageMetadata // Oldest first, at most limit entries.
	listeners map[Listener]struct{}
	ops       chan func()
}

// New creates a Hub that replays up to historyLen recent messages to each new listener.  The hub
// follows message stored and deleted events from extHost.  Nothing is relayed until Start runs.
func New(historyLen int, extHost *extension.Host) *Hub {
	hub := &Hub{
		limit:     max(historyLen, 0),
		listeners: make(map[Listener]struct{}),
		ops:       make(chan func(), queueLen),
	}
	extHost.Events.AfterMessageStored.AddListener("msghub", hub.Dispatch)
	extHost.Events.AfterMessageDeleted.AddListener("msghub", func(msg event.MessageMetadata) {
		hub.Delete(msg.ID)
	})
	return hub
}

// Start runs queued operations until ctx is canceled.
func (hub *Hub) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-hub.ops:
			op()
		}
	}
}

// Dispatch records msg in the history and relays it to every listener.
func (hub *Hub) Dispatch(msg event.MessageMetadata) {
	hub.ops <- func() {
		if hub.limit > 0 {
			if len(hub.history) == hub.limit {
				hub.history = slices.Delete(hub.history, 0, 1)
			}
			hub.history = append(hub.history, msg)
		}
		hub.notify(func(l Listener) error { return l.Receive(msg) })
	}
}

// AddListener replays the history to l, then subscribes it to further messages.
func (hub *Hub) AddListener(l Listener) {
	hub.ops <- func() {
		for _, msg := range hub.history {
			_ = l.Receive(msg)
		}
		hub.listeners[l] = struct{}{}
	}
}

// RemoveListener unsubscribes l.
func (hub *Hub) RemoveListener(l Listener) {
	hub.ops <- func() {
		delete(hub.listeners, l)
	}
}

// Delete forgets message id and tells listeners it is gone.
func (hub *Hub) Delete(id string) {
	hub.ops <- func() {
		hub.history = slices.DeleteFunc(hub.history, func(m event.MessageMetadata) bool {
			return m.ID == id
		})
		hub.notify(func(l Listener) error { return l.Delete(id) })
	}
}

// Sync waits for every operation queued before it to complete.
func (hub *Hub) Sync() {
	done := make(chan struct{})
	hub.ops <- func() { close(done) }
	<-done
}

func (hub *Hub) notify(send func(Listener) error) {
	for l := range hub.listeners {
		if err := send(l); err != nil {
			delete(hub.listeners, l)
		}
	}
}
