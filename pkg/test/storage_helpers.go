package test

import (
	"fmt"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/storage"
)

// DeliverToStore creates and delivers a message to the store, returning its ID and the size of
// the generated message.
func DeliverToStore(
	t *testing.T,
	store storage.Store,
	subject string,
	date time.Time,
) (string, int64) {
	t.Helper()
	meta := event.MessageMetadata{
		To:      []*mail.Address{{Name: "Some Body", Address: "somebody@host"}},
		From:    &mail.Address{Name: "Some B. Else", Address: "somebodyelse@host"},
		Subject: subject,
		Date:    date,
	}
	testMsg := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\nTest Body",
		meta.To[0].Address, meta.From.Address, subject)
	delivery := &message.Delivery{
		Meta:     meta,
		Envelope: []string{meta.To[0].Address},
		Reader:   strings.NewReader(testMsg),
	}

	id, err := store.AddMessage(delivery)
	if err != nil {
		t.Fatal(err)
	}

	return id, int64(len(testMsg))
}

// GetAndCountMessages is a test helper that expects to receive count messages or fails the test,
// it also checks return error.
func GetAndCountMessages(t *testing.T, s storage.Store, count int) []storage.Message {
	t.Helper()
	msgs, err := s.GetMessages()
	if err != nil {
		t.Fatalf("Failed to GetMessages: %v", err)
	}
	if len(msgs) != count {
		t.Errorf("Got %v messages, want: %v", len(msgs), count)
	}

	return msgs
}

// NewMessage creates an undelivered message with the provided ID and subject, dated now.
func NewMessage(id, subject string) *message.Delivery {
	source := fmt.Sprintf("Subject: %s\r\n\r\nTest Body", subject)
	return &message.Delivery{
		Meta: event.MessageMetadata{
			ID:      id,
			From:    &mail.Address{Address: "from@example.com"},
			To:      []*mail.Address{{Address: "to@example.com"}},
			Date:    time.Now(),
			Subject: subject,
			Size:    int64(len(source)),
		},
		Envelope: []string{"to@example.com"},
		Reader:   strings.NewReader(source),
	}
}
