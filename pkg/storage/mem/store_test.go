package mem

import (
	"sync"
	"testing"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/storage"
	"github.com/inbucket/dumbster/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite runs storage package test suite on memory store.
func TestSuite(t *testing.T) {
	test.StoreSuite(t, func(conf config.Storage, extHost *extension.Host) (storage.Store, func(), error) {
		s, err := New(conf, extHost)
		return s, func() {}, err
	})
}

func TestNewInvalidMaxKB(t *testing.T) {
	_, err := New(config.Storage{Params: map[string]string{"maxkb": "lots"}}, extension.NewHost())
	assert.Error(t, err)
}

// TestMaxSize verifies the store size limit is enforced during concurrent delivery.
func TestMaxSize(t *testing.T) {
	maxSize := int64(2048)
	s, err := New(config.Storage{Params: map[string]string{"maxkb": "2"}}, extension.NewHost())
	require.NoError(t, err)

	workers := 5
	n := 10
	sizeChan := make(chan int64, workers)
	for w := 0; w < workers; w++ {
		go func() {
			size := int64(0)
			for i := 0; i < n; i++ {
				_, nbytes := test.DeliverToStore(t, s, "subject", time.Now())
				size += nbytes
			}
			sizeChan <- size
		}()
	}
	sentBytesTotal := int64(0)
	for w := 0; w < workers; w++ {
		sentBytesTotal += <-sizeChan
	}
	require.Greater(t, sentBytesTotal, maxSize)

	// Calculate actual size.
	gotSize := int64(0)
	_ = s.VisitMessages(func(m storage.Message) bool {
		gotSize += m.Size()
		return true
	})
	// Messages are ~90 bytes each.
	assert.Greater(t, gotSize, maxSize-100)
	assert.LessOrEqual(t, gotSize, maxSize)

	// Remove messages concurrently, testing for deadlocks.
	msgs, err := s.GetMessages()
	require.NoError(t, err)
	wg := &sync.WaitGroup{}
	for _, m := range msgs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, s.RemoveMessage(id))
		}(m.ID())
	}
	wg.Wait()
	test.GetAndCountMessages(t, s, 0)

	// Store accepts new messages after removal.
	test.DeliverToStore(t, s, "after", time.Now())
	test.GetAndCountMessages(t, s, 1)
}
