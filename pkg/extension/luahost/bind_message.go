package luahost

import (
	"time"

	"github.com/inbucket/dumbster/pkg/extension/event"
	lua "github.com/yuin/gopher-lua"
)

const messageMetadataName = "message_metadata"

// Dates are exposed as unix seconds.
var messageMetadataProps = properties[event.MessageMetadata]{
	"id":      stringProperty(func(m *event.MessageMetadata) *string { return &m.ID }),
	"subject": stringProperty(func(m *event.MessageMetadata) *string { return &m.Subject }),
	"from": {
		get: func(ls *lua.LState, m *event.MessageMetadata) lua.LValue {
			return wrapMailAddress(ls, m.From)
		},
		set: func(ls *lua.LState, m *event.MessageMetadata, arg int) {
			m.From = checkMailAddress(ls, arg)
		},
	},
	"to": {
		get: func(ls *lua.LState, m *event.MessageMetadata) lua.LValue {
			return wrapMailAddressList(ls, m.To)
		},
		set: func(ls *lua.LState, m *event.MessageMetadata, arg int) {
			m.To = checkMailAddressList(ls, arg)
		},
	},
	"date": {
		get: func(_ *lua.LState, m *event.MessageMetadata) lua.LValue {
			return lua.LNumber(m.Date.Unix())
		},
		set: func(ls *lua.LState, m *event.MessageMetadata, arg int) {
			m.Date = time.Unix(ls.CheckInt64(arg), 0)
		},
	},
	"size": {
		get: func(_ *lua.LState, m *event.MessageMetadata) lua.LValue { return lua.LNumber(m.Size) },
		set: func(ls *lua.LState, m *event.MessageMetadata, arg int) { m.Size = ls.CheckInt64(arg) },
	},
}

func registerMessageMetadataType(ls *lua.LState) {
	messageMetadataProps.global(ls, messageMetadataName, func(ls *lua.LState) int {
		ls.Push(wrapMessageMetadata(ls, &event.MessageMetadata{}))
		return 1
	})
}

func wrapMessageMetadata(ls *lua.LState, val *event.MessageMetadata) *lua.LUserData {
	return wrapUserData(ls, messageMetadataName, val)
}
