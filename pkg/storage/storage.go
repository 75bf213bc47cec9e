// Package storage contains implementation independent message store logic.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
)

// LatestID is a message ID alias for the most recently received message.
const LatestID = "latest"

var (
	// ErrNotExist indicates the requested message does not exist.
	ErrNotExist = errors.New("message does not exist")
)

// Store is the interface Dumbster uses to interact with received messages.  Messages are kept in
// the order they were added.
type Store interface {
	AddMessage(message Message) (id string, err error)
	GetMessage(id string) (Message, error)
	GetMessages() ([]Message, error)
	PurgeMessages() error
	RemoveMessage(id string) error
	VisitMessages(f func(Message) (cont bool)) error
}

// Message represents a received message.
type Message interface {
	ID() string
	From() *mail.Address
	To() []*mail.Address
	Recipients() []string
	Date() time.Time
	Subject() string
	Source() (io.ReadCloser, error)
	Size() int64
}

// StoreFunc constructs a Store implementation.
type StoreFunc func(config.Storage, *extension.Host) (Store, error)

// Constructors tracks registered storage constructors, keyed by config.Storage.Type.
var Constructors = make(map[string]StoreFunc)

// FromConfig creates an instance of the Store based on the provided configuration.
func FromConfig(c config.Storage, extHost *extension.Host) (Store, error) {
	if cf := Constructors[c.Type]; cf != nil {
		return cf(c, extHost)
	}
	return nil, fmt.Errorf("unknown storage type configured: %q", c.Type)
}
