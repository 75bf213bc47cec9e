package protocol

import (
	"testing"

	"github.com/jhillyerd/goldiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionStep struct {
	line  string
	code  int
	state State
}

// playSteps feeds each step line to the session, checking the reply code and resulting state.
// Messages completed along the way are returned.
func playSteps(t *testing.T, s *Session, steps []sessionStep) []*Message {
	t.Helper()
	var msgs []*Message
	for i, step := range steps {
		resp, msg, err := s.Handle(step.line)
		require.NoError(t, err, "step %v: %q", i, step.line)
		assert.Equal(t, step.code, resp.Code, "code for step %v: %q", i, step.line)
		assert.Equal(t, step.state, s.State(), "state after step %v: %q", i, step.line)
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestSessionHappyPath(t *testing.T) {
	s := NewSession(Engine{})
	assert.Equal(t, CONNECT, s.State())

	greet := s.Connect()
	assert.Equal(t, 220, greet.Code)
	assert.Equal(t, GREET, s.State())

	msgs := playSteps(t, s, []sessionStep{
		{"EHLO foo", 250, MAIL},
		{"MAIL FROM:<a@b.com>", 250, RCPT},
		{"RCPT TO:<c@d.com>", 250, RCPT},
		{"DATA", 354, DATA_HEADER},
		{"Subject: hi", NoReply, DATA_HEADER},
		{"", NoReply, DATA_BODY},
		{"hello body", NoReply, DATA_BODY},
		{".", 250, QUIT},
		{"QUIT", 221, CONNECT},
	})

	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Equal(t, "hi", msg.Header.Get("Subject"))
	assert.Equal(t, "hello body", msg.Body)
	assert.Equal(t, 1, msg.BodyLineCount)
	assert.Equal(t, "Subject: hi\r\n\r\nhello body", msg.Raw)
	assert.Equal(t, "a@b.com", s.From())
	assert.Equal(t, []string{"c@d.com"}, s.Recipients())
}

func TestSessionRcptBeforeMail(t *testing.T) {
	s := NewSession(Engine{})
	s.Connect()

	msgs := playSteps(t, s, []sessionStep{
		{"EHLO foo", 250, MAIL},
		{"RCPT TO:<c@d.com>", 503, MAIL},
		{"DATA", 503, MAIL},
		{"MAIL FROM:<a@b.com>", 250, RCPT},
	})
	assert.Empty(t, msgs)
	assert.Empty(t, s.Recipients())

	resp, _, err := s.Handle("QUIT")
	require.NoError(t, err)
	assert.Equal(t, "Bad sequence of commands: QUIT", resp.Message)
}

func TestSessionMultipleMessages(t *testing.T) {
	s := NewSession(Engine{})
	s.Connect()

	msgs := playSteps(t, s, []sessionStep{
		{"HELO foo", 250, MAIL},
		{"MAIL FROM:<one@b.com>", 250, RCPT},
		{"RCPT TO:<x@d.com>", 250, RCPT},
		{"RCPT TO:<y@d.com>", 250, RCPT},
		{"DATA", 354, DATA_HEADER},
		{"Subject: first", NoReply, DATA_HEADER},
		{".", 250, QUIT},
		{"MAIL FROM:<two@b.com> SIZE=100", 250, RCPT},
		{"RCPT TO:<z@d.com>", 250, RCPT},
		{"DATA", 354, DATA_HEADER},
		{"Subject: second", NoReply, DATA_HEADER},
		{"", NoReply, DATA_BODY},
		{"body", NoReply, DATA_BODY},
		{".", 250, QUIT},
		{"QUIT", 221, CONNECT},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Header.Get("Subject"))
	assert.Equal(t, "", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Header.Get("Subject"))
	assert.Equal(t, "body", msgs[1].Body)
	assert.Equal(t, "two@b.com", s.From())
	assert.Equal(t, []string{"z@d.com"}, s.Recipients())
}

func TestSessionStatelessCommands(t *testing.T) {
	s := NewSession(Engine{})
	s.Connect()

	playSteps(t, s, []sessionStep{
		{"NOOP", 250, GREET},
		{"HELP", 211, GREET},
		{"VRFY someone", 252, GREET},
		{"EXPN list", 252, GREET},
		{"BOGUS", 500, GREET},
		{"EHLO foo", 250, MAIL},
		{"MAIL FROM:<a@b.com>", 250, RCPT},
		{"RSET", 250, GREET},
	})
	assert.Equal(t, "", s.From())
	assert.Empty(t, s.Recipients())
}

func TestSessionCommandsInsideData(t *testing.T) {
	s := NewSession(Engine{})
	s.Connect()

	msgs := playSteps(t, s, []sessionStep{
		{"EHLO foo", 250, MAIL},
		{"MAIL FROM:<a@b.com>", 250, RCPT},
		{"RCPT TO:<c@d.com>", 250, RCPT},
		{"DATA", 354, DATA_HEADER},
		{"", NoReply, DATA_BODY},
		{"RSET", NoReply, DATA_BODY},
		{"QUIT", NoReply, DATA_BODY},
		{".", 250, QUIT},
	})

	require.Len(t, msgs, 1)
	assert.Equal(t, 0, msgs[0].Header.Len())
	assert.Equal(t, "RSET\r\nQUIT", msgs[0].Body)
}

func TestSessionRsetClearsEnvelope(t *testing.T) {
	s := NewSession(Engine{})
	s.Connect()

	msgs := playSteps(t, s, []sessionStep{
		{"EHLO foo", 250, MAIL},
		{"MAIL FROM:<a@b.com>", 250, RCPT},
		{"RCPT TO:<c@d.com>", 250, RCPT},
		{"RSET", 250, GREET},
		{"DATA", 503, GREET},
		{"EHLO foo", 250, MAIL},
	})
	assert.Empty(t, msgs)
	assert.Empty(t, s.Recipients())
}

func TestMessageStringGolden(t *testing.T) {
	s := NewSession(Engine{Domain: "mx.example.com"})
	s.Connect()

	msgs := playSteps(t, s, []sessionStep{
		{"EHLO client.example.com", 250, MAIL},
		{"MAIL FROM:<sender@example.com>", 250, RCPT},
		{"RCPT TO:<rcpt@example.com>", 250, RCPT},
		{"DATA", 354, DATA_HEADER},
		{"From: Sender <sender@example.com>", NoReply, DATA_HEADER},
		{"To: rcpt@example.com", NoReply, DATA_HEADER},
		{"Received: from one", NoReply, DATA_HEADER},
		{"Received: from two", NoReply, DATA_HEADER},
		{"Subject: Golden message", NoReply, DATA_HEADER},
		{"", NoReply, DATA_BODY},
		{"Only line.", NoReply, DATA_BODY},
		{".", 250, QUIT},
	})

	require.Len(t, msgs, 1)
	goldiff.File(t, []byte(msgs[0].String()), "testdata", "message.golden")
}
