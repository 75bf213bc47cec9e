package protocol

import "fmt"

// NoReply is the response code for lines which are captured silently, such as message headers
// and body text.
const NoReply = -1

// Phase tells the Accumulator what a response means for the message in progress.  The engine
// assigns it, so accumulation never has to re-inspect the action that produced the response.
type Phase int

const (
	// PhaseNone leaves the message untouched.
	PhaseNone Phase = iota
	// PhaseBegin starts a new message, DATA was accepted.
	PhaseBegin
	// PhaseHeader captures a header line.
	PhaseHeader
	// PhaseBody captures a body line.
	PhaseBody
	// PhaseEnd completes the message.
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "None"
	case PhaseBegin:
		return "Begin"
	case PhaseHeader:
		return "Header"
	case PhaseBody:
		return "Body"
	case PhaseEnd:
		return "End"
	}
	return "Unknown"
}

// Response is the engine's reply to a single request.
type Response struct {
	Code      int
	Message   string
	NextState State
	Phase     Phase
}

// Silent returns true if no reply line should be sent to the client.
func (r Response) Silent() bool {
	return r.Code == NoReply
}

// String formats the response as an SMTP reply line, without the line terminator.  A silent
// response formats as the empty string.
func (r Response) String() string {
	if r.Silent() {
		return ""
	}
	return fmt.Sprintf("%03d %s", r.Code, r.Message)
}
