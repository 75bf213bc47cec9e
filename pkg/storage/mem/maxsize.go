package mem

import (
	"container/list"
	"sync"
)

// sizeLimit tracks the source bytes held by a Store, oldest message first.  A nil *sizeLimit
// imposes no limit.
type sizeLimit struct {
	mu    sync.Mutex
	max   int64
	total int64
	order list.List
}

func newSizeLimit(maxBytes int64) *sizeLimit {
	return &sizeLimit{max: maxBytes}
}

// add accounts for m, returning the messages to evict so the total does not exceed the limit.
// m itself is evicted when it alone is too large.
func (l *sizeLimit) add(m *Message) (evict []*Message) {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	m.el = l.order.PushBack(m)
	l.total += m.Size()
	for l.total > l.max && l.order.Len() > 0 {
		old := l.order.Front().Value.(*Message)
		l.forgetLocked(old)
		evict = append(evict, old)
	}
	return evict
}

// forget stops accounting for m, it is a no-op for messages already forgotten.
func (l *sizeLimit) forget(m *Message) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forgetLocked(m)
}

func (l *sizeLimit) forgetLocked(m *Message) {
	if m.el == nil {
		return
	}
	l.order.Remove(m.el)
	m.el = nil
	l.total -= m.Size()
}
