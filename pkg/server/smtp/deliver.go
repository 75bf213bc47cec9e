package smtp

import (
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/protocol"
)

// Deliverer receives each message completed by an SMTP session, along with its envelope.
type Deliverer interface {
	Deliver(from string, recipients []string, msg *protocol.Message) error
}

// DelivererFunc adapts a func to the Deliverer interface.
type DelivererFunc func(from string, recipients []string, msg *protocol.Message) error

// Deliver calls f.
func (f DelivererFunc) Deliver(from string, recipients []string, msg *protocol.Message) error {
	return f(from, recipients, msg)
}

// ManagerDeliverer stores received messages through a message.Manager.
type ManagerDeliverer struct {
	Manager message.Manager
}

// Deliver stores the raw message text.
func (d ManagerDeliverer) Deliver(from string, recipients []string, msg *protocol.Message) error {
	_, err := d.Manager.Deliver(from, recipients, []byte(msg.Raw))
	return err
}
