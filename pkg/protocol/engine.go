package protocol

import "fmt"

// DefaultDomain is the host name announced by Execute.
const DefaultDomain = "localhost"

const (
	okText       = "OK"
	greetText    = "%v Dumbster SMTP service ready"
	closingText  = "%v Dumbster service closing transmission channel"
	dataText     = "Start mail input; end with <CRLF>.<CRLF>"
	badSeqText   = "Bad sequence of commands: "
	notSupported = "Not supported"
	noHelpText   = "No help available"
	unknownText  = "Command not recognized"
)

type transitionKey struct {
	action Action
	state  State
}

type transition struct {
	code       int
	text       string
	withDomain bool // text is a format string taking the domain.
	next       State
	phase      Phase
}

// transitions is the state transition table for stateful actions.  Any action and state pair
// missing from it is out of sequence.
//
//	           CONNECT    GREET     MAIL      RCPT          DATA_HDR      DATA_BODY     QUIT
//	connect    220/GREET
//	ehlo                  250/MAIL
//	mail                            250/RCPT                                            250/RCPT
//	rcpt                                      250/RCPT
//	data                                      354/DATA_HDR
//	unrecog                                                 ---/DATA_HDR  ---/DATA_BODY
//	data_end                                                250/QUIT      250/QUIT
//	blank_line                                              ---/DATA_BODY ---/DATA_BODY
//	quit                                                                                221/CONNECT
var transitions = map[transitionKey]transition{
	{ActionConnect, CONNECT}:          {220, greetText, true, GREET, PhaseNone},
	{ActionEHLO, GREET}:               {250, okText, false, MAIL, PhaseNone},
	{ActionMail, MAIL}:                {250, okText, false, RCPT, PhaseNone},
	{ActionMail, QUIT}:                {250, okText, false, RCPT, PhaseNone},
	{ActionRcpt, RCPT}:                {250, okText, false, RCPT, PhaseNone},
	{ActionData, RCPT}:                {354, dataText, false, DATA_HEADER, PhaseBegin},
	{ActionUnrecognized, DATA_HEADER}: {NoReply, "", false, DATA_HEADER, PhaseHeader},
	{ActionUnrecognized, DATA_BODY}:   {NoReply, "", false, DATA_BODY, PhaseBody},
	{ActionDataEnd, DATA_HEADER}:      {250, okText, false, QUIT, PhaseEnd},
	{ActionDataEnd, DATA_BODY}:        {250, okText, false, QUIT, PhaseEnd},
	{ActionBlankLine, DATA_HEADER}:    {NoReply, "", false, DATA_BODY, PhaseNone},
	{ActionBlankLine, DATA_BODY}:      {NoReply, "", false, DATA_BODY, PhaseNone},
	{ActionQuit, QUIT}:                {221, closingText, true, CONNECT, PhaseNone},
}

// Engine computes responses to requests.  The zero value announces DefaultDomain.
type Engine struct {
	Domain string // Host name used in greeting and closing replies.
}

// Execute computes the response to action in state using an Engine with the default domain.
func Execute(action Action, params string, state State) Response {
	return Engine{}.Execute(action, params, state)
}

// Execute computes the response to action in state.  It has no side effects and may be called
// concurrently.  Params are accepted for completeness; no reply depends on them.
func (e Engine) Execute(action Action, params string, state State) Response {
	if action.Stateless() {
		return executeStateless(action, state)
	}
	t, ok := transitions[transitionKey{action, state}]
	if !ok {
		return Response{Code: 503, Message: badSeqText + action.String(), NextState: state}
	}
	text := t.text
	if t.withDomain {
		text = fmt.Sprintf(text, e.domain())
	}
	return Response{Code: t.code, Message: text, NextState: t.next, Phase: t.phase}
}

func (e Engine) domain() string {
	if e.Domain == "" {
		return DefaultDomain
	}
	return e.Domain
}

func executeStateless(action Action, state State) Response {
	switch action {
	case ActionExpn, ActionVrfy:
		return Response{Code: 252, Message: notSupported, NextState: state}
	case ActionHelp:
		return Response{Code: 211, Message: noHelpText, NextState: state}
	case ActionNoop:
		return Response{Code: 250, Message: okText, NextState: state}
	case ActionRset:
		return Response{Code: 250, Message: okText, NextState: GREET}
	}
	return Response{Code: 500, Message: unknownText, NextState: state}
}
