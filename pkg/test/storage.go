package test

import (
	"errors"
	"sync"

	"github.com/inbucket/dumbster/pkg/storage"
)

// ErrorID is a message ID which will cause StoreStub to return an internal error.
const ErrorID = "messageerr"

// StoreStub stubs storage.Store for testing.
type StoreStub struct {
	storage.Store
	mu        sync.Mutex
	messages  []storage.Message
	deleted   map[storage.Message]struct{}
	forceErrs bool // GetMessages returns errors.
}

// NewStore creates a new StoreStub.
func NewStore() *StoreStub {
	return &StoreStub{
		deleted: make(map[storage.Message]struct{}),
	}
}

// AddMessage adds a message to the store, keeping the ID it already carries.
func (s *StoreStub) AddMessage(m storage.Message) (id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return m.ID(), nil
}

// GetMessage gets a message by ID.
func (s *StoreStub) GetMessage(id string) (storage.Message, error) {
	if id == ErrorID {
		return nil, errors.New("internal error")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, storage.ErrNotExist
}

// GetMessages gets all the messages.
func (s *StoreStub) GetMessages() ([]storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceErrs {
		return nil, errors.New("internal error")
	}
	return append([]storage.Message(nil), s.messages...), nil
}

// PurgeMessages deletes all messages.
func (s *StoreStub) PurgeMessages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		s.deleted[m] = struct{}{}
	}
	s.messages = nil
	return nil
}

// RemoveMessage deletes a message by ID.
func (s *StoreStub) RemoveMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID() == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			s.deleted[m] = struct{}{}
			return nil
		}
	}
	return storage.ErrNotExist
}

// VisitMessages calls f with each message while it continues to return true.
func (s *StoreStub) VisitMessages(f func(storage.Message) (cont bool)) error {
	msgs, err := s.GetMessages()
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if !f(m) {
			return nil
		}
	}
	return nil
}

// MessageDeleted returns true if the specified message was deleted.
func (s *StoreStub) MessageDeleted(m storage.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.deleted[m]
	return ok
}

// ForceErrors causes GetMessages and VisitMessages to fail.
func (s *StoreStub) ForceErrors(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceErrs = enable
}
