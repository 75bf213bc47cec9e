package luahost

import (
	"fmt"
	"net/mail"

	"github.com/inbucket/dumbster/pkg/extension/event"
	lua "github.com/yuin/gopher-lua"
)

const inboundMessageName = "inbound_message"

// Addresses are handed to Lua by reference, so `msg.from.name = x` modifies msg.  The envelope
// recipients and size describe what was received and cannot be changed.
var inboundMessageProps = properties[event.InboundMessage]{
	"subject": stringProperty(func(m *event.InboundMessage) *string { return &m.Subject }),
	"from": {
		get: func(ls *lua.LState, m *event.InboundMessage) lua.LValue {
			return wrapMailAddress(ls, &m.From)
		},
		set: func(ls *lua.LState, m *event.InboundMessage, arg int) {
			m.From = *checkMailAddress(ls, arg)
		},
	},
	"to": {
		get: func(ls *lua.LState, m *event.InboundMessage) lua.LValue {
			refs := make([]*mail.Address, len(m.To))
			for i := range m.To {
				refs[i] = &m.To[i]
			}
			return wrapMailAddressList(ls, refs)
		},
		set: func(ls *lua.LState, m *event.InboundMessage, arg int) {
			addrs := checkMailAddressList(ls, arg)
			m.To = make([]mail.Address, len(addrs))
			for i, a := range addrs {
				m.To[i] = *a
			}
		},
	},
	"recipients": {
		get: func(ls *lua.LState, m *event.InboundMessage) lua.LValue {
			lt := ls.CreateTable(len(m.Recipients), 0)
			for _, r := range m.Recipients {
				lt.Append(lua.LString(r))
			}
			return lt
		},
	},
	"size": {
		get: func(_ *lua.LState, m *event.InboundMessage) lua.LValue { return lua.LNumber(m.Size) },
	},
}

func registerInboundMessageType(ls *lua.LState) {
	inboundMessageProps.global(ls, inboundMessageName, func(ls *lua.LState) int {
		ls.Push(wrapInboundMessage(ls, &event.InboundMessage{}))
		return 1
	})
}

func wrapInboundMessage(ls *lua.LState, val *event.InboundMessage) *lua.LUserData {
	return wrapUserData(ls, inboundMessageName, val)
}

func unwrapInboundMessage(lv lua.LValue) (*event.InboundMessage, error) {
	if ud, ok := lv.(*lua.LUserData); ok {
		if v, ok := ud.Value.(*event.InboundMessage); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %s", inboundMessageName, lv.Type())
}
