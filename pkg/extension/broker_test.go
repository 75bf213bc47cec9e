package extension_test

import (
	"net/mail"
	"testing"

	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerEmitCallsListenersInOrder(t *testing.T) {
	broker := &extension.EventBroker[string, bool]{}

	var calls []string
	broker.AddListener("first", func(s string) *bool {
		calls = append(calls, "first:"+s)
		return nil
	})
	broker.AddListener("second", func(s string) *bool {
		calls = append(calls, "second:"+s)
		return nil
	})

	in := "bacon"
	got := broker.Emit(&in)
	assert.Nil(t, got)
	assert.Equal(t, []string{"first:bacon", "second:bacon"}, calls)
}

func TestBrokerEmitCapturesFirstResult(t *testing.T) {
	broker := &extension.EventBroker[struct{}, string]{}

	makeListener := func(result *string) func(struct{}) *string {
		return func(struct{}) *string { return result }
	}
	first, second := "first", "second"
	broker.AddListener("0", makeListener(nil))
	broker.AddListener("1", makeListener(&first))
	broker.AddListener("2", makeListener(&second))

	got := broker.Emit(&struct{}{})
	require.NotNil(t, got)
	assert.Equal(t, first, *got)
}

func TestBrokerListenerCannotMutateEvent(t *testing.T) {
	broker := &extension.EventBroker[event.InboundMessage, event.InboundMessage]{}
	broker.AddListener("mutator", func(msg event.InboundMessage) *event.InboundMessage {
		msg.Subject = "changed"
		return nil
	})

	in := event.InboundMessage{Subject: "original", From: mail.Address{Address: "a@b.com"}}
	got := broker.Emit(&in)
	assert.Nil(t, got)
	assert.Equal(t, "original", in.Subject)
}

func TestBrokerAddingDuplicateNameReplacesPrevious(t *testing.T) {
	broker := &extension.EventBroker[string, bool]{}

	var firstGot, secondGot string
	broker.AddListener("dup", func(s string) *bool {
		firstGot = s
		return nil
	})
	broker.AddListener("other", func(string) *bool { return nil })
	broker.AddListener("dup", func(s string) *bool {
		secondGot = s
		return nil
	})

	want := "hi"
	broker.Emit(&want)
	assert.Empty(t, firstGot)
	assert.Equal(t, want, secondGot)
	assert.Equal(t, []string{"other", "dup"}, broker.Listeners())
}

func TestBrokerRemovingListenerSuccessful(t *testing.T) {
	broker := &extension.EventBroker[string, bool]{}

	var firstGot, secondGot string
	broker.AddListener("1", func(s string) *bool {
		firstGot = s
		return nil
	})
	broker.AddListener("2", func(s string) *bool {
		secondGot = s
		return nil
	})
	broker.RemoveListener("1")

	want := "hi"
	broker.Emit(&want)
	assert.Empty(t, firstGot)
	assert.Equal(t, want, secondGot)
	assert.Equal(t, []string{"2"}, broker.Listeners())
}

func TestBrokerRemovingMissingListener(t *testing.T) {
	broker := &extension.EventBroker[string, bool]{}
	assert.NotPanics(t, func() { broker.RemoveListener("doesn't crash") })
	assert.Empty(t, broker.Listeners())
}
