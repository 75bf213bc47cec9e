// Package message contains message handling logic.
package message

import (
	"io"
	"net/mail"
	"time"

	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/storage"
	"github.com/jhillyerd/enmime/v2"
)

// Message holds both the metadata and content of a message.
type Message struct {
	event.MessageMetadata
	Recipients []string
	env        *enmime.Envelope
}

// New constructs a new Message.
func New(m event.MessageMetadata, recipients []string, e *enmime.Envelope) *Message {
	return &Message{
		MessageMetadata: m,
		Recipients:      recipients,
		env:             e,
	}
}

// Attachments returns the MIME attachments for the message.
func (m *Message) Attachments() []*enmime.Part {
	return m.env.Attachments
}

// Header returns the header map for this message.
func (m *Message) Header() mail.Header {
	return mail.Header(m.env.Root.Header)
}

// HTML returns the HTML body of the message.
func (m *Message) HTML() string {
	return m.env.HTML
}

// MIMEErrors returns MIME parsing errors and warnings.
func (m *Message) MIMEErrors() []*enmime.Error {
	return m.env.Errors
}

// Text returns the text body of the message.
func (m *Message) Text() string {
	return m.env.Text
}

// Root returns the root of the MIME part tree.
func (m *Message) Root() *enmime.Part {
	return m.env.Root
}

// Delivery is used to add a message to storage.
type Delivery struct {
	Meta     event.MessageMetadata
	Envelope []string // Envelope recipients.
	Reader   io.Reader
}

var _ storage.Message = &Delivery{}

// ID getter.
func (d *Delivery) ID() string {
	return d.Meta.ID
}

// From getter.
func (d *Delivery) From() *mail.Address {
	return d.Meta.From
}

// To getter.
func (d *Delivery) To() []*mail.Address {
	return d.Meta.To
}

// Recipients getter.
func (d *Delivery) Recipients() []string {
	return d.Envelope
}

// Date getter.
func (d *Delivery) Date() time.Time {
	return d.Meta.Date
}

// Subject getter.
func (d *Delivery) Subject() string {
	return d.Meta.Subject
}

// Size getter.
func (d *Delivery) Size() int64 {
	return d.Meta.Size
}

// Source contains the raw content of the message.
func (d *Delivery) Source() (io.ReadCloser, error) {
	return io.NopCloser(d.Reader), nil
}

// MakeMetadata populates event metadata from a storage.Message.
func MakeMetadata(m storage.Message) event.MessageMetadata {
	return event.MessageMetadata{
		ID:      m.ID(),
		From:    m.From(),
		To:      m.To(),
		Date:    m.Date(),
		Subject: m.Subject(),
		Size:    m.Size(),
	}
}
