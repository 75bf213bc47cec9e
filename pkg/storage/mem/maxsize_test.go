package mem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sizedMessage(id string, size int) *Message {
	return &Message{id: id, source: []byte(strings.Repeat("x", size))}
}

func TestSizeLimitEvictsOldestFirst(t *testing.T) {
	l := newSizeLimit(100)
	a, b, c := sizedMessage("a", 40), sizedMessage("b", 40), sizedMessage("c", 40)

	assert.Empty(t, l.add(a))
	assert.Empty(t, l.add(b))
	assert.Equal(t, []*Message{a}, l.add(c))
	assert.Equal(t, int64(80), l.total)
	assert.Nil(t, a.el)
}

func TestSizeLimitForget(t *testing.T) {
	l := newSizeLimit(100)
	a, b := sizedMessage("a", 60), sizedMessage("b", 30)
	l.add(a)
	l.add(b)

	l.forget(a)
	l.forget(a)
	assert.Equal(t, int64(30), l.total)
	assert.Empty(t, l.add(sizedMessage("c", 70)), "room freed by forget")
}

func TestSizeLimitOversizedMessage(t *testing.T) {
	l := newSizeLimit(10)
	big := sizedMessage("big", 11)
	assert.Equal(t, []*Message{big}, l.add(big))
	assert.Zero(t, l.total)
}

func TestNilSizeLimit(t *testing.T) {
	var l *sizeLimit
	m := sizedMessage("a", 1<<20)
	assert.Nil(t, l.add(m))
	l.forget(m)
}
