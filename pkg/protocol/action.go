package protocol

// Action is the classified intent of a single line of client input.  Stateful actions are
// positive, stateless actions are negative; their responses do not depend on session state.
type Action int

const (
	// ActionConnect is synthesized by the listener when a client connects.
	ActionConnect Action = iota + 1
	// ActionEHLO covers both EHLO and HELO.
	ActionEHLO
	// ActionMail is MAIL FROM.
	ActionMail
	// ActionRcpt is RCPT TO.
	ActionRcpt
	// ActionData starts message input.
	ActionData
	// ActionDataEnd is the lone "." terminating message input.
	ActionDataEnd
	// ActionQuit ends the session.
	ActionQuit
	// ActionUnrecognized carries header and body text while receiving a message.
	ActionUnrecognized
	// ActionBlankLine separates headers from the body.
	ActionBlankLine
)

const (
	// ActionRset resets the session to GREET.
	ActionRset Action = -(iota + 1)
	// ActionVrfy is not supported.
	ActionVrfy
	// ActionExpn is not supported.
	ActionExpn
	// ActionHelp offers no help.
	ActionHelp
	// ActionNoop does nothing.
	ActionNoop
	// ActionUnknown is any command we could not parse.
	ActionUnknown
)

// Stateless returns true if the response to this action does not depend on the session state.
func (a Action) Stateless() bool {
	return a < 0
}

func (a Action) String() string {
	switch a {
	case ActionConnect:
		return "Connect"
	case ActionEHLO:
		return "EHLO"
	case ActionMail:
		return "MAIL"
	case ActionRcpt:
		return "RCPT"
	case ActionData:
		return "DATA"
	case ActionDataEnd:
		return "."
	case ActionQuit:
		return "QUIT"
	case ActionUnrecognized:
		return "Unrecognized command / data"
	case ActionBlankLine:
		return "Blank line"
	case ActionRset:
		return "RSET"
	case ActionVrfy:
		return "VRFY"
	case ActionExpn:
		return "EXPN"
	case ActionHelp:
		return "HELP"
	case ActionNoop:
		return "NOOP"
	case ActionUnknown:
		return "Unrecognized command"
	}
	return "Unknown"
}
