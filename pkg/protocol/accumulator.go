package protocol

import (
	"errors"
	"strings"
)

// ErrNoMessage indicates an attempt to finish a message when none is in progress.  It is a
// caller bug, not a protocol error.
var ErrNoMessage = errors.New("no message in progress")

// Accumulator reconstructs a single message from the responses and lines of a session.  A new
// Accumulator is required for each message.
type Accumulator struct {
	header Header
	body   strings.Builder
	raw    strings.Builder
	lines  int
	done   bool
}

// NewAccumulator returns an Accumulator with an empty message in progress.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Observe updates the message in progress given the response produced for req.  Only requests
// carrying text, answered in PhaseHeader or PhaseBody, are captured; all others leave the
// message as is.
func (a *Accumulator) Observe(resp Response, req Request) {
	if a.done || !req.HasParams {
		return
	}
	line := req.Params
	switch resp.Phase {
	case PhaseHeader:
		a.raw.WriteString(line)
		a.raw.WriteString(CRLF)
		if i := strings.IndexByte(line, ':'); i >= 0 {
			a.header.Add(strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]))
		}
	case PhaseBody:
		if a.lines == 0 {
			// Blank line separating headers from body.
			a.raw.WriteString(CRLF)
		} else {
			a.raw.WriteString(CRLF)
			a.body.WriteString(CRLF)
		}
		a.raw.WriteString(line)
		a.body.WriteString(line)
		a.lines++
	}
}

// Finish completes the message in progress and returns it.  The Accumulator will not accept
// further lines.
func (a *Accumulator) Finish() (*Message, error) {
	if a == nil || a.done {
		return nil, ErrNoMessage
	}
	a.done = true
	return &Message{
		Header:        a.header,
		Body:          a.body.String(),
		BodyLineCount: a.lines,
		Raw:           a.raw.String(),
	}, nil
}
