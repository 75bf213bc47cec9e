// Package protocol implements the Dumbster SMTP protocol engine: line classification, the session
// state transition table, and reconstruction of the transmitted message.
package protocol

// State tracks the current mode of our SMTP state machine.
type State int

const (
	// CONNECT State: waiting for a client connection
	CONNECT State = iota
	// GREET State: waiting for EHLO/HELO
	GREET
	// MAIL State: waiting for MAIL FROM
	MAIL
	// RCPT State: got MAIL, accepting RCPTs until DATA
	RCPT
	// DATA_HEADER State: receiving message headers
	DATA_HEADER
	// DATA_BODY State: receiving message body, waiting for "."
	DATA_BODY
	// QUIT State: message accepted, waiting for QUIT or another MAIL
	QUIT
)

func (s State) String() string {
	switch s {
	case CONNECT:
		return "CONNECT"
	case GREET:
		return "GREET"
	case MAIL:
		return "MAIL"
	case RCPT:
		return "RCPT"
	case DATA_HEADER:
		return "DATA_HEADER"
	case DATA_BODY:
		return "DATA_BODY"
	case QUIT:
		return "QUIT"
	}
	return "Unknown"
}

// Accumulating returns true while message content is being received; lines are captured rather
// than parsed as commands.
func (s State) Accumulating() bool {
	return s == DATA_HEADER || s == DATA_BODY
}

// States lists every session state in transition order.
var States = []State{CONNECT, GREET, MAIL, RCPT, DATA_HEADER, DATA_BODY, QUIT}
