// Package mem implements an in-memory storage.Store.
package mem

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/storage"
)

// Store implements an in-memory message store.
type Store struct {
	sync.RWMutex
	messages map[string]*Message
	first    int           // Index of oldest message which may still be present.
	last     int           // Index of newest message.
	cap      int        // Message cap, 0 is unlimited.
	limit    *sizeLimit // Total source size limit, nil is unlimited.
	extHost  *extension.Host
}

var _ storage.Store = &Store{}

// New returns an empty memory store.
func New(cfg config.Storage, extHost *extension.Host) (storage.Store, error) {
	s := &Store{
		messages: make(map[string]*Message),
		first:    1,
		cap:      cfg.MessageCap,
		extHost:  extHost,
	}
	if str, ok := cfg.Params["maxkb"]; ok {
		maxKB, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse maxkb: %w", err)
		}
		if maxKB > 0 {
			s.limit = newSizeLimit(maxKB * 1024)
		}
	}
	return s, nil
}

// AddMessage stores the message, message ID and Size will be ignored.
func (s *Store) AddMessage(msg storage.Message) (id string, err error) {
	r, err := msg.Source()
	if err != nil {
		return "", err
	}
	source, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		return "", err
	}
	m := &Message{
		from:       msg.From(),
		to:         msg.To(),
		recipients: msg.Recipients(),
		date:       msg.Date(),
		subject:    msg.Subject(),
		source:     source,
	}

	var evicted []*Message
	s.Lock()
	s.last++
	m.index = s.last
	m.id = strconv.Itoa(s.last)
	s.messages[m.id] = m
	if s.cap > 0 {
		// Enforce cap, oldest first.
		for len(s.messages) > s.cap {
			key := strconv.Itoa(s.first)
			if old, ok := s.messages[key]; ok {
				delete(s.messages, key)
				evicted = append(evicted, old)
			}
			s.first++
		}
	}
	s.Unlock()

	for _, old := range evicted {
		s.limit.forget(old)
		s.emitDeleted(old)
	}
	for _, old := range s.limit.add(m) {
		s.removeMessage(old.id)
	}
	return m.id, nil
}

// GetMessage gets a message, the ID "latest" refers to the most recent message.
func (s *Store) GetMessage(id string) (storage.Message, error) {
	s.RLock()
	defer s.RUnlock()

	if id == storage.LatestID {
		var latest *Message
		for _, m := range s.messages {
			if latest == nil || m.index > latest.index {
				latest = m
			}
		}
		if latest == nil {
			return nil, storage.ErrNotExist
		}
		return latest, nil
	}
	m, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return m, nil
}

// GetMessages gets all messages, oldest first.
func (s *Store) GetMessages() ([]storage.Message, error) {
	s.RLock()
	defer s.RUnlock()

	return s.sortedLocked(), nil
}

// PurgeMessages deletes all messages.
func (s *Store) PurgeMessages() error {
	s.Lock()
	purged := s.sortedLocked()
	s.messages = make(map[string]*Message)
	s.first = s.last + 1
	s.Unlock()

	for _, m := range purged {
		s.limit.forget(m.(*Message))
		s.emitDeleted(m.(*Message))
	}
	return nil
}

// RemoveMessage deletes a single message.
func (s *Store) RemoveMessage(id string) error {
	m := s.removeMessage(id)
	if m == nil {
		return storage.ErrNotExist
	}
	s.limit.forget(m)
	return nil
}

// removeMessage deletes a single message without updating the size limit.  Returns the message
// that was removed, or nil.
func (s *Store) removeMessage(id string) *Message {
	s.Lock()
	m := s.messages[id]
	if m != nil {
		delete(s.messages, id)
	}
	s.Unlock()

	if m != nil {
		s.emitDeleted(m)
	}
	return m
}

// VisitMessages calls f for each message, oldest first, until it returns false.  The store is not
// locked while f runs.
func (s *Store) VisitMessages(f func(storage.Message) (cont bool)) error {
	ms, _ := s.GetMessages()
	for _, m := range ms {
		if !f(m) {
			break
		}
	}
	return nil
}

func (s *Store) sortedLocked() []storage.Message {
	ms := make([]storage.Message, 0, len(s.messages))
	for _, v := range s.messages {
		ms = append(ms, v)
	}
	sort.Slice(ms, func(i, j int) bool {
		return ms[i].(*Message).index < ms[j].(*Message).index
	})
	return ms
}

func (s *Store) emitDeleted(m *Message) {
	meta := message.MakeMetadata(m)
	s.extHost.Events.AfterMessageDeleted.Emit(&meta)
}
