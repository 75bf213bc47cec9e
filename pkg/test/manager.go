package test

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/storage"
)

// ManagerStub is a test stub for message.Manager.
type ManagerStub struct {
	message.Manager
	mu        sync.Mutex
	messages  []*message.Message
	sources   map[string]string
	forceErrs bool
}

// NewManager creates a new ManagerStub.
func NewManager() *ManagerStub {
	return &ManagerStub{sources: make(map[string]string)}
}

// AddMessage adds a parsed message, along with its source.
func (m *ManagerStub) AddMessage(msg *message.Message, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	m.sources[msg.ID] = source
}

// ForceErrors causes list and purge operations to fail.
func (m *ManagerStub) ForceErrors(enable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceErrs = enable
}

// GetMessage gets a message by ID.
func (m *ManagerStub) GetMessage(id string) (*message.Message, error) {
	if id == ErrorID {
		return nil, errors.New("internal error")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, storage.ErrNotExist
}

// GetMetadata gets the metadata for all messages.
func (m *ManagerStub) GetMetadata() ([]*event.MessageMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceErrs {
		return nil, errors.New("internal error")
	}
	metas := make([]*event.MessageMetadata, len(m.messages))
	for i, msg := range m.messages {
		metas[i] = &msg.MessageMetadata
	}
	return metas, nil
}

// PurgeMessages removes all messages.
func (m *ManagerStub) PurgeMessages() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceErrs {
		return errors.New("internal error")
	}
	m.messages = nil
	return nil
}

// RemoveMessage removes a message by ID.
func (m *ManagerStub) RemoveMessage(id string) error {
	if id == ErrorID {
		return errors.New("internal error")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.messages {
		if msg.ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotExist
}

// SourceReader returns the source of a message by ID.
func (m *ManagerStub) SourceReader(id string) (io.ReadCloser, error) {
	if id == ErrorID {
		return nil, errors.New("internal error")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(src)), nil
}
