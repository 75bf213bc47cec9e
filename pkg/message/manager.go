package message

import (
	"bytes"
	"io"
	"net/mail"
	"time"

	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/storage"
	"github.com/jhillyerd/enmime/v2"
	"github.com/rs/zerolog/log"
)

// Manager is the interface controllers use to interact with messages.
type Manager interface {
	Deliver(from string, recipients []string, source []byte) (id string, err error)
	GetMetadata() ([]*event.MessageMetadata, error)
	GetMessage(id string) (*Message, error)
	PurgeMessages() error
	RemoveMessage(id string) error
	SourceReader(id string) (io.ReadCloser, error)
}

// StoreManager is a message Manager backed by the storage.Store.
type StoreManager struct {
	Store   storage.Store
	ExtHost *extension.Host
}

var _ Manager = &StoreManager{}

// Deliver parses the header of a received message and adds it to the store.  The envelope sender
// and recipients are used when the message lacks From or To headers.
func (s *StoreManager) Deliver(from string, recipients []string, source []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(source))
	if err != nil {
		return "", err
	}

	inbound := event.InboundMessage{
		From:       envelopeFrom(env, from),
		To:         envelopeTo(env, recipients),
		Recipients: recipients,
		Subject:    env.GetHeader("Subject"),
		Size:       int64(len(source)),
	}

	// Give extensions a chance to alter stored fields.
	if extResult := s.ExtHost.Events.BeforeMessageStored.Emit(&inbound); extResult != nil {
		inbound.From = extResult.From
		inbound.To = extResult.To
		inbound.Subject = extResult.Subject
	}

	toAddrs := make([]*mail.Address, len(inbound.To))
	for i := range inbound.To {
		toAddrs[i] = &inbound.To[i]
	}
	delivery := &Delivery{
		Meta: event.MessageMetadata{
			From:    &inbound.From,
			To:      toAddrs,
			Date:    time.Now(),
			Subject: inbound.Subject,
			Size:    inbound.Size,
		},
		Envelope: recipients,
		Reader:   bytes.NewReader(source),
	}

	log.Debug().Str("module", "message").Str("from", inbound.From.Address).
		Strs("recipients", recipients).Msg("Delivering message")
	id, err := s.Store.AddMessage(delivery)
	if err != nil {
		return "", err
	}

	delivery.Meta.ID = id
	s.ExtHost.Events.AfterMessageStored.Emit(&delivery.Meta)

	return id, nil
}

// GetMetadata returns a slice of metadata for all stored messages, oldest first.
func (s *StoreManager) GetMetadata() ([]*event.MessageMetadata, error) {
	messages, err := s.Store.GetMessages()
	if err != nil {
		return nil, err
	}
	metas := make([]*event.MessageMetadata, len(messages))
	for i, sm := range messages {
		meta := MakeMetadata(sm)
		metas[i] = &meta
	}
	return metas, nil
}

// GetMessage returns the specified message, with its MIME content parsed.
func (s *StoreManager) GetMessage(id string) (*Message, error) {
	sm, err := s.Store.GetMessage(id)
	if err != nil {
		return nil, err
	}
	r, err := sm.Source()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}
	return New(MakeMetadata(sm), sm.Recipients(), env), nil
}

// PurgeMessages removes all stored messages.
func (s *StoreManager) PurgeMessages() error {
	log.Debug().Str("module", "message").Msg("Purging messages")
	return s.Store.PurgeMessages()
}

// RemoveMessage deletes the specified message.
func (s *StoreManager) RemoveMessage(id string) error {
	return s.Store.RemoveMessage(id)
}

// SourceReader allows the stored message source to be read.
func (s *StoreManager) SourceReader(id string) (io.ReadCloser, error) {
	sm, err := s.Store.GetMessage(id)
	if err != nil {
		return nil, err
	}
	return sm.Source()
}

func envelopeFrom(env *enmime.Envelope, from string) mail.Address {
	if addrs, err := env.AddressList("From"); err == nil && len(addrs) > 0 {
		return *addrs[0]
	}
	return mail.Address{Address: from}
}

func envelopeTo(env *enmime.Envelope, recipients []string) []mail.Address {
	if addrs, err := env.AddressList("To"); err == nil && len(addrs) > 0 {
		to := make([]mail.Address, len(addrs))
		for i, a := range addrs {
			to[i] = *a
		}
		return to
	}
	to := make([]mail.Address, len(recipients))
	for i, r := range recipients {
		to[i] = mail.Address{Address: r}
	}
	return to
}
