package extension_test

import (
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tally counts the events delivered to each named listener.
type tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func (ta *tally) listener(name string) func(string) {
	return func(string) {
		ta.mu.Lock()
		defer ta.mu.Unlock()
		if ta.counts == nil {
			ta.counts = make(map[string]int)
		}
		ta.counts[name]++
	}
}

func (ta *tally) get(name string) int {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	return ta.counts[name]
}

func TestAsyncBrokerDeliversMetadata(t *testing.T) {
	broker := &extension.AsyncEventBroker[event.MessageMetadata]{}
	got := make(chan event.MessageMetadata, 1)
	broker.AddListener("monitor", func(m event.MessageMetadata) { got <- m })

	sent := event.MessageMetadata{
		ID:      "12",
		From:    &mail.Address{Address: "a@b.org"},
		Subject: "Greetings",
		Size:    42,
	}
	broker.Emit(&sent)

	select {
	case m := <-got:
		assert.Equal(t, sent, m)
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not called")
	}
}

func TestAsyncBrokerReachesEveryListener(t *testing.T) {
	broker := &extension.AsyncEventBroker[string]{}
	ta := &tally{}
	names := []string{"a", "b", "c"}
	for _, n := range names {
		broker.AddListener(n, ta.listener(n))
	}

	for range 4 {
		broker.Emit(new(string))
	}

	for _, n := range names {
		assert.Eventually(t, func() bool { return ta.get(n) == 4 }, 2*time.Second,
			5*time.Millisecond, "listener %s", n)
	}
}

func TestAsyncBrokerNameReuseReplaces(t *testing.T) {
	broker := &extension.AsyncEventBroker[string]{}
	stale := broker.AsyncTestListener("monitor", 1)
	fresh := broker.AsyncTestListener("monitor", 1)
	assert.Equal(t, []string{"monitor"}, broker.Listeners())

	msg := "new mail"
	broker.Emit(&msg)

	got, err := fresh()
	require.NoError(t, err)
	assert.Equal(t, msg, *got)

	got, err = stale()
	require.ErrorIs(t, err, extension.ErrListenerTimeout)
	assert.Nil(t, got)
}

func TestAsyncBrokerRemoveListener(t *testing.T) {
	broker := &extension.AsyncEventBroker[string]{}
	ta := &tally{}
	broker.AddListener("kept", ta.listener("kept"))
	broker.AddListener("gone", ta.listener("gone"))
	broker.RemoveListener("gone")
	broker.RemoveListener("never added")

	assert.Equal(t, []string{"kept"}, broker.Listeners())

	broker.Emit(new(string))
	require.Eventually(t, func() bool { return ta.get("kept") == 1 }, 2*time.Second,
		5*time.Millisecond)
	assert.Zero(t, ta.get("gone"))
}

func TestAsyncBrokerListenersInOrder(t *testing.T) {
	broker := &extension.AsyncEventBroker[int]{}
	for _, n := range []string{"z", "m", "a"} {
		broker.AddListener(n, func(int) {})
	}
	broker.AddListener("z", func(int) {})
	assert.Equal(t, []string{"m", "a", "z"}, broker.Listeners(), "re-added listener moves last")
}

func TestAsyncTestListenerUnregistersWhenFull(t *testing.T) {
	broker := &extension.AsyncEventBroker[int]{}
	next := broker.AsyncTestListener("counter", 3)

	for i := range 3 {
		broker.Emit(&i)
		got, err := next()
		require.NoError(t, err)
		assert.Equal(t, i, *got)
	}
	assert.Empty(t, broker.Listeners())
}
