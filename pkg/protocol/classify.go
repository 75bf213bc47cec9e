package protocol

import "strings"

// Request is a classified line of client input.
type Request struct {
	Action    Action
	Params    string // Remainder of the line once the command is removed.
	HasParams bool   // False when the action captures no text.
}

// command maps a case-insensitive line prefix to an action.  Params are taken from offset, when
// capture is set.
type command struct {
	prefix  string
	action  Action
	offset  int
	capture bool
}

// commands in priority order.
var commands = []command{
	{"EHLO ", ActionEHLO, 5, true},
	{"HELO", ActionEHLO, 5, true},
	{"MAIL FROM:", ActionMail, 10, true},
	{"RCPT TO:", ActionRcpt, 8, true},
	{"DATA", ActionData, 0, false},
	{"QUIT", ActionQuit, 0, false},
	{"RSET", ActionRset, 0, false},
	{"NOOP", ActionNoop, 0, false},
	{"EXPN", ActionExpn, 0, false},
	{"VRFY", ActionVrfy, 0, false},
	{"HELP", ActionHelp, 0, false},
}

// Classify derives the action for a line of input given the current session state.  It is total
// over all strings: input that cannot be parsed is classified, never rejected.
func Classify(line string, state State) Request {
	if state.Accumulating() {
		switch {
		case line == ".":
			return Request{Action: ActionDataEnd}
		case line == "" && state == DATA_HEADER:
			return Request{Action: ActionBlankLine}
		}
		return Request{Action: ActionUnrecognized, Params: line, HasParams: true}
	}

	for _, c := range commands {
		if !hasPrefixFold(line, c.prefix) {
			continue
		}
		req := Request{Action: c.action}
		if c.capture {
			req.HasParams = true
			if len(line) > c.offset {
				req.Params = line[c.offset:]
			}
		}
		return req
	}
	return Request{Action: ActionUnknown}
}

// hasPrefixFold is strings.HasPrefix ignoring ASCII case.  It does not case map the whole line,
// so byte offsets into line remain valid.
func hasPrefixFold(line, prefix string) bool {
	return len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix)
}
