package extension

import (
	"github.com/inbucket/dumbster/pkg/extension/event"
)

// Host defines extension points for Dumbster.
type Host struct {
	Events *Events
}

// Events defines all the event types supported by the extension host.
//
// BeforeMessageStored is processed synchronously, before a received message is added to the
// store.  The first listener to return a non-nil InboundMessage replaces the envelope and header
// data that will be stored.
//
// After-events are processed asynchronously; listeners should not expect to observe them in any
// particular order relative to other Dumbster activity.
type Events struct {
	AfterMessageDeleted AsyncEventBroker[event.MessageMetadata]
	AfterMessageStored  AsyncEventBroker[event.MessageMetadata]
	BeforeMessageStored EventBroker[event.InboundMessage, event.InboundMessage]
}

// NewHost creates a new extension host.
func NewHost() *Host {
	return &Host{Events: &Events{}}
}
