package msghub

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Listener that notes each stored ID as "+id" and each deleted ID as "-id".
type recorder struct {
	mu        sync.Mutex
	events    []string
	failAfter int // when > 0, calls beyond this count return an error.
}

func (r *recorder) note(ev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.failAfter > 0 && len(r.events) > r.failAfter {
		return errors.New("listener full")
	}
	return nil
}

func (r *recorder) Receive(msg event.MessageMetadata) error {
	return r.note("+" + msg.ID)
}

func (r *recorder) Delete(id string) error {
	return r.note("-" + id)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// startHub runs a hub until the test ends.
func startHub(t *testing.T, historyLen int) (*Hub, *extension.Host) {
	t.Helper()
	extHost := extension.NewHost()
	hub := New(historyLen, extHost)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Start(ctx)
	return hub, extHost
}

func dispatchIDs(hub *Hub, from, to int) {
	for i := from; i <= to; i++ {
		hub.Dispatch(event.MessageMetadata{ID: strconv.Itoa(i), Subject: "subj" + strconv.Itoa(i)})
	}
}

func TestHubWithoutListeners(t *testing.T) {
	for _, historyLen := range []int{0, 5} {
		t.Run(strconv.Itoa(historyLen), func(t *testing.T) {
			hub, _ := startHub(t, historyLen)
			dispatchIDs(hub, 1, 100)
			hub.Delete("50")
			hub.Sync()
		})
	}
}

func TestHubBroadcastsToEveryListener(t *testing.T) {
	hub, _ := startHub(t, 5)
	a, b := &recorder{}, &recorder{}
	hub.AddListener(a)
	hub.AddListener(b)

	dispatchIDs(hub, 1, 3)
	hub.Sync()

	want := []string{"+1", "+2", "+3"}
	assert.Equal(t, want, a.got())
	assert.Equal(t, want, b.got())
}

func TestHubPlaysBackHistory(t *testing.T) {
	tests := []struct {
		name       string
		historyLen int
		dispatched int
		want       []string
	}{
		{"no history", 0, 3, nil},
		{"partial ring", 5, 3, []string{"+1", "+2", "+3"}},
		{"full ring", 3, 3, []string{"+1", "+2", "+3"}},
		{"wrapped ring", 3, 7, []string{"+5", "+6", "+7"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hub, _ := startHub(t, tc.historyLen)
			dispatchIDs(hub, 1, tc.dispatched)

			l := &recorder{}
			hub.AddListener(l)
			hub.Sync()

			assert.Equal(t, tc.want, l.got())
		})
	}
}

func TestHubPlaybackThenLive(t *testing.T) {
	hub, _ := startHub(t, 2)
	dispatchIDs(hub, 1, 3)
	l := &recorder{}
	hub.AddListener(l)
	dispatchIDs(hub, 4, 4)
	hub.Sync()

	assert.Equal(t, []string{"+2", "+3", "+4"}, l.got())
}

func TestHubRemoveListener(t *testing.T) {
	hub, _ := startHub(t, 5)
	l := &recorder{}
	hub.AddListener(l)
	dispatchIDs(hub, 1, 1)
	hub.RemoveListener(l)
	dispatchIDs(hub, 2, 2)
	hub.Delete("1")
	hub.Sync()

	assert.Equal(t, []string{"+1"}, l.got())
}

func TestHubDropsFailingListener(t *testing.T) {
	hub, _ := startHub(t, 5)
	failing := &recorder{failAfter: 1}
	healthy := &recorder{}
	hub.AddListener(failing)
	hub.AddListener(healthy)

	dispatchIDs(hub, 1, 3)
	hub.Delete("3")
	hub.Sync()

	assert.Equal(t, []string{"+1", "+2"}, failing.got(), "removed after first error")
	assert.Equal(t, []string{"+1", "+2", "+3", "-3"}, healthy.got())
}

func TestHubDropsListenerFailingDelete(t *testing.T) {
	hub, _ := startHub(t, 5)
	l := &recorder{failAfter: 1}
	hub.AddListener(l)

	dispatchIDs(hub, 1, 1)
	hub.Delete("1")
	hub.Delete("1")
	dispatchIDs(hub, 2, 2)
	hub.Sync()

	assert.Equal(t, []string{"+1", "-1"}, l.got())
}

func TestHubDeleteClearsHistory(t *testing.T) {
	hub, _ := startHub(t, 5)
	early := &recorder{}
	hub.AddListener(early)
	dispatchIDs(hub, 1, 3)
	hub.Delete("2")

	late := &recorder{}
	hub.AddListener(late)
	hub.Sync()

	assert.Equal(t, []string{"+1", "+2", "+3", "-2"}, early.got())
	assert.Equal(t, []string{"+1", "+3"}, late.got(), "deleted message not played back")
}

func TestHubDeleteFreesHistorySlot(t *testing.T) {
	hub, _ := startHub(t, 3)
	dispatchIDs(hub, 1, 3)
	hub.Delete("1")
	dispatchIDs(hub, 4, 4)

	l := &recorder{}
	hub.AddListener(l)
	hub.Sync()

	assert.Equal(t, []string{"+2", "+3", "+4"}, l.got())
}

func TestHubDeleteCompactsHistory(t *testing.T) {
	hub, _ := startHub(t, 3)
	dispatchIDs(hub, 1, 3)
	hub.Delete("2")
	dispatchIDs(hub, 4, 4)

	l := &recorder{}
	hub.AddListener(l)
	hub.Sync()

	assert.Equal(t, []string{"+1", "+3", "+4"}, l.got())
}

func TestHubWithoutHistoryStillRelays(t *testing.T) {
	hub, _ := startHub(t, 0)
	l := &recorder{}
	hub.AddListener(l)
	dispatchIDs(hub, 1, 2)
	hub.Sync()

	assert.Equal(t, []string{"+1", "+2"}, l.got())
}

func TestHubFollowsExtensionEvents(t *testing.T) {
	hub, extHost := startHub(t, 5)
	l := &recorder{}
	hub.AddListener(l)

	extHost.Events.AfterMessageStored.Emit(&event.MessageMetadata{ID: "9"})
	require.Eventually(t, func() bool {
		hub.Sync()
		return len(l.got()) == 1
	}, time.Second, 5*time.Millisecond)

	extHost.Events.AfterMessageDeleted.Emit(&event.MessageMetadata{ID: "9"})
	require.Eventually(t, func() bool {
		hub.Sync()
		return len(l.got()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"+9", "-9"}, l.got())
}

func TestHubStartReturnsOnCancel(t *testing.T) {
	hub := New(5, extension.NewHost())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Start(ctx)
		close(done)
	}()

	hub.Sync()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
