package storage

import (
	"github.com/stretchr/testify/mock"
)

// MockStore is a shared Store mock for unit testing.
type MockStore struct {
	mock.Mock
}

var _ Store = &MockStore{}

// AddMessage mock function
func (m *MockStore) AddMessage(message Message) (string, error) {
	args := m.Called(message)
	return args.String(0), args.Error(1)
}

// GetMessage mock function
func (m *MockStore) GetMessage(id string) (Message, error) {
	args := m.Called(id)
	msg, _ := args.Get(0).(Message)
	return msg, args.Error(1)
}

// GetMessages mock function
func (m *MockStore) GetMessages() ([]Message, error) {
	args := m.Called()
	msgs, _ := args.Get(0).([]Message)
	return msgs, args.Error(1)
}

// PurgeMessages mock function
func (m *MockStore) PurgeMessages() error {
	return m.Called().Error(0)
}

// RemoveMessage mock function
func (m *MockStore) RemoveMessage(id string) error {
	return m.Called(id).Error(0)
}

// VisitMessages mock function, calls f for each Message returned by the mock.
func (m *MockStore) VisitMessages(f func(Message) (cont bool)) error {
	args := m.Called(f)
	msgs, _ := args.Get(0).([]Message)
	for _, msg := range msgs {
		if !f(msg) {
			break
		}
	}
	return args.Error(1)
}
