package mem

import (
	"bytes"
	"container/list"
	"io"
	"net/mail"
	"time"

	"github.com/inbucket/dumbster/pkg/storage"
)

// Message is a memory store message.
type Message struct {
	index      int
	id         string
	from       *mail.Address
	to         []*mail.Address
	recipients []string
	date       time.Time
	subject    string
	source     []byte
	el         *list.Element // This message in the sizeLimit order.
}

var _ storage.Message = &Message{}

// ID the message ID.
func (m *Message) ID() string { return m.id }

// From returns the from address.
func (m *Message) From() *mail.Address { return m.from }

// To returns the to address list.
func (m *Message) To() []*mail.Address { return m.to }

// Recipients returns the envelope recipients.
func (m *Message) Recipients() []string { return m.recipients }

// Date returns the date received.
func (m *Message) Date() time.Time { return m.date }

// Subject returns the subject line.
func (m *Message) Subject() string { return m.subject }

// Source returns a reader for the message source.
func (m *Message) Source() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.source)), nil
}

// Size returns the message size in bytes.
func (m *Message) Size() int64 { return int64(len(m.source)) }
