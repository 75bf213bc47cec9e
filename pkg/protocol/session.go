package protocol

import (
	"fmt"
	"strings"
)

// Session runs the classify, execute, observe pipeline for a single client.  It is not safe for
// concurrent use; each client connection owns its own Session.
type Session struct {
	engine     Engine
	state      State
	acc        *Accumulator // Message in progress, nil outside DATA.
	from       string       // Sender from MAIL command.
	recipients []string     // Recipients from RCPT commands.
}

// NewSession creates a Session in the CONNECT state.
func NewSession(engine Engine) *Session {
	return &Session{engine: engine, state: CONNECT}
}

func (s *Session) String() string {
	return fmt.Sprintf("Session{state: %v}", s.state)
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// From returns the envelope sender of the current transaction.
func (s *Session) From() string {
	return s.from
}

// Recipients returns the envelope recipients of the current transaction.
func (s *Session) Recipients() []string {
	return append([]string(nil), s.recipients...)
}

// Connect applies the synthetic CONNECT action, producing the server greeting.
func (s *Session) Connect() Response {
	resp := s.engine.Execute(ActionConnect, "", s.state)
	s.state = resp.NextState
	return resp
}

// Handle processes one line of client input, without its line terminator.  When the line
// completes a message, the message is returned along with the response.
func (s *Session) Handle(line string) (Response, *Message, error) {
	req := Classify(line, s.state)
	resp := s.engine.Execute(req.Action, req.Params, s.state)

	switch resp.Phase {
	case PhaseBegin:
		s.acc = NewAccumulator()
	case PhaseHeader, PhaseBody:
		if s.acc != nil {
			s.acc.Observe(resp, req)
		}
	}
	if resp.Code == 250 {
		s.updateEnvelope(req)
	}
	s.state = resp.NextState

	if resp.Phase == PhaseEnd {
		msg, err := s.acc.Finish()
		s.acc = nil
		return resp, msg, err
	}
	return resp, nil, nil
}

// updateEnvelope records the sender and recipients of accepted MAIL and RCPT commands.
func (s *Session) updateEnvelope(req Request) {
	switch req.Action {
	case ActionMail:
		s.from = envelopeAddress(req.Params)
		s.recipients = nil
	case ActionRcpt:
		s.recipients = append(s.recipients, envelopeAddress(req.Params))
	case ActionRset:
		s.acc = nil
		s.from = ""
		s.recipients = nil
	}
}

// envelopeAddress extracts the address from MAIL/RCPT params such as " <a@b.com> SIZE=12".
func envelopeAddress(params string) string {
	fields := strings.Fields(params)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "<>")
}
