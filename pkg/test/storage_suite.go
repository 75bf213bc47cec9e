package test

import (
	"io"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory returns a new store for the test suite.
type StoreFactory func(config.Storage, *extension.Host) (store storage.Store, destroy func(), err error)

// StoreSuite runs a set of general tests on the provided Store.
func StoreSuite(t *testing.T, factory StoreFactory) {
	testCases := []struct {
		name string
		test func(*testing.T, storage.Store, *extension.Host)
		conf config.Storage
	}{
		{"metadata", testMetadata, config.Storage{}},
		{"content", testContent, config.Storage{}},
		{"delivery order", testDeliveryOrder, config.Storage{}},
		{"latest", testLatest, config.Storage{}},
		{"size", testSize, config.Storage{}},
		{"delete", testDelete, config.Storage{}},
		{"purge", testPurge, config.Storage{}},
		{"cap=10", testMsgCap, config.Storage{MessageCap: 10}},
		{"cap=0", testNoMsgCap, config.Storage{MessageCap: 0}},
		{"visit messages", testVisitMessages, config.Storage{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			extHost := extension.NewHost()
			store, destroy, err := factory(tc.conf, extHost)
			require.NoError(t, err)
			tc.test(t, store, extHost)
			destroy()
		})
	}
}

// testMetadata verifies message metadata is stored and retrieved correctly.
func testMetadata(t *testing.T, store storage.Store, _ *extension.Host) {
	from := &mail.Address{Name: "From Person", Address: "from@person.com"}
	to := []*mail.Address{
		{Name: "One Person", Address: "one@a.person.com"},
		{Name: "Two Person", Address: "two@b.person.com"},
	}
	recipients := []string{"one@a.person.com", "bcc@c.person.com"}
	date := time.Now()
	subject := "fantastic test subject line"
	content := "doesn't matter"
	delivery := &message.Delivery{
		Meta: event.MessageMetadata{
			// ID and Size will be determined by the Store.
			From:    from,
			To:      to,
			Date:    date,
			Subject: subject,
		},
		Envelope: recipients,
		Reader:   strings.NewReader(content),
	}
	id, err := store.AddMessage(delivery)
	require.NoError(t, err)
	require.NotEmpty(t, id, "AddMessage() must return a non-empty ID")

	sm, err := store.GetMessage(id)
	require.NoError(t, err)
	assert.Equal(t, id, sm.ID())
	assert.Equal(t, from, sm.From())
	assert.Equal(t, to, sm.To())
	assert.Equal(t, recipients, sm.Recipients())
	assert.True(t, sm.Date().Equal(date), "got date %v, want: %v", sm.Date(), date)
	assert.Equal(t, subject, sm.Subject())
	assert.Equal(t, int64(len(content)), sm.Size())
}

// testContent generates some binary content and makes sure it is correctly retrieved.
func testContent(t *testing.T, store storage.Store, _ *extension.Host) {
	content := make([]byte, 5000)
	for i := 0; i < len(content); i++ {
		content[i] = byte(i % 256)
	}
	delivery := &message.Delivery{
		Meta: event.MessageMetadata{
			From:    &mail.Address{Name: "From Person", Address: "from@person.com"},
			To:      []*mail.Address{{Name: "One Person", Address: "one@a.person.com"}},
			Date:    time.Now(),
			Subject: "fantastic test subject line",
		},
		Reader: strings.NewReader(string(content)),
	}
	id, err := store.AddMessage(delivery)
	require.NoError(t, err)

	sm, err := store.GetMessage(id)
	require.NoError(t, err)
	r, err := sm.Source()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, content, got)
}

// testDeliveryOrder delivers several messages and verifies they are returned in order.
func testDeliveryOrder(t *testing.T, store storage.Store, _ *extension.Host) {
	subjects := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, subj := range subjects {
		DeliverToStore(t, store, subj, time.Now())
	}

	msgs := GetAndCountMessages(t, store, len(subjects))
	for i, sm := range msgs {
		assert.Equal(t, subjects[i], sm.Subject())
	}
}

// testLatest verifies the latest ID alias.
func testLatest(t *testing.T, store storage.Store, _ *extension.Host) {
	_, err := store.GetMessage(storage.LatestID)
	assert.ErrorIs(t, err, storage.ErrNotExist)

	for _, subj := range []string{"alpha", "bravo", "charlie"} {
		DeliverToStore(t, store, subj, time.Now())
	}
	sm, err := store.GetMessage(storage.LatestID)
	require.NoError(t, err)
	assert.Equal(t, "charlie", sm.Subject())
}

// testSize verifies message content size metadata values.
func testSize(t *testing.T, store storage.Store, _ *extension.Host) {
	subjects := []string{"a", "br", "much longer than the others"}
	sentIDs := make([]string, len(subjects))
	sentSizes := make([]int64, len(subjects))
	for i, subj := range subjects {
		sentIDs[i], sentSizes[i] = DeliverToStore(t, store, subj, time.Now())
	}
	for i, id := range sentIDs {
		sm, err := store.GetMessage(id)
		require.NoError(t, err)
		assert.Equal(t, sentSizes[i], sm.Size(), "size of message %v", id)
	}
}

// testDelete creates and deletes some messages.
func testDelete(t *testing.T, store storage.Store, extHost *extension.Host) {
	subjects := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, subj := range subjects {
		DeliverToStore(t, store, subj, time.Now())
	}
	msgs := GetAndCountMessages(t, store, len(subjects))

	deleted := extHost.Events.AfterMessageDeleted.AsyncTestListener("test", 2)

	// Delete a couple messages.
	require.NoError(t, store.RemoveMessage(msgs[1].ID()))
	require.NoError(t, store.RemoveMessage(msgs[3].ID()))

	// Both deletes must emit events, order is not guaranteed.
	var gotSubjects []string
	for i := 0; i < 2; i++ {
		ev, err := deleted()
		require.NoError(t, err)
		gotSubjects = append(gotSubjects, ev.Subject)
	}
	assert.ElementsMatch(t, []string{"bravo", "delta"}, gotSubjects)

	msgs = GetAndCountMessages(t, store, 3)
	for i, want := range []string{"alpha", "charlie", "echo"} {
		assert.Equal(t, want, msgs[i].Subject())
	}

	// Missing messages.
	assert.ErrorIs(t, store.RemoveMessage(msgs[0].ID()+"-missing"), storage.ErrNotExist)
	_, err := store.GetMessage("999999")
	assert.ErrorIs(t, err, storage.ErrNotExist)

	// Add a message after deletes.
	DeliverToStore(t, store, "foxtrot", time.Now())
	msgs = GetAndCountMessages(t, store, 4)
	assert.Equal(t, "foxtrot", msgs[3].Subject())
}

// testPurge makes sure messages can be purged.
func testPurge(t *testing.T, store storage.Store, extHost *extension.Host) {
	subjects := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, subj := range subjects {
		DeliverToStore(t, store, subj, time.Now())
	}
	GetAndCountMessages(t, store, len(subjects))

	deleted := extHost.Events.AfterMessageDeleted.AsyncTestListener("test", len(subjects))

	require.NoError(t, store.PurgeMessages())
	GetAndCountMessages(t, store, 0)

	for range subjects {
		_, err := deleted()
		require.NoError(t, err)
	}

	// IDs are not reused after a purge.
	id, _ := DeliverToStore(t, store, "foxtrot", time.Now())
	assert.NotEqual(t, "1", id)
}

// testMsgCap verifies the message cap is enforced.
func testMsgCap(t *testing.T, store storage.Store, _ *extension.Host) {
	msgCap := 10
	for i := 0; i < 20; i++ {
		DeliverToStore(t, store, subjectN(i), time.Now())
		msgs := GetAndCountMessages(t, store, min(i+1, msgCap))
		// Check that the oldest message is correct.
		want := subjectN(max(0, i+1-msgCap))
		assert.Equal(t, want, msgs[0].Subject(), "after delivery %v", i)
	}
}

// testNoMsgCap verfies a cap of 0 is not enforced.
func testNoMsgCap(t *testing.T, store storage.Store, _ *extension.Host) {
	for i := 0; i < 20; i++ {
		DeliverToStore(t, store, subjectN(i), time.Now())
		GetAndCountMessages(t, store, i+1)
	}
}

// testVisitMessages creates some messages and confirms the VisitMessages method visits all of
// them, and stops early when asked.
func testVisitMessages(t *testing.T, store storage.Store, _ *extension.Host) {
	subjects := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, subj := range subjects {
		DeliverToStore(t, store, subj, time.Now())
	}

	var seen []string
	err := store.VisitMessages(func(m storage.Message) bool {
		seen = append(seen, m.Subject())
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, subjects, seen)

	count := 0
	err = store.VisitMessages(func(m storage.Message) bool {
		count++
		return count < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func subjectN(i int) string {
	return "subject " + string(rune('a'+i))
}
