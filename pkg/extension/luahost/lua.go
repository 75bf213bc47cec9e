// Package luahost runs user supplied Lua scripts in response to extension events.
package luahost

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/extension"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

const listenerName = "lua"

// Host of Lua extensions.
type Host struct {
	Functions []string // Event functions defined by the script, ex: "after.message_stored".
	extHost   *extension.Host
	pool      *statePool
	logger    zerolog.Logger
}

// New constructs a new Lua Host, pre-compiling the script at conf.Path.  A nil Host is returned
// without error when the script does not exist.
func New(conf config.Lua, extHost *extension.Host) (*Host, error) {
	scriptPath := conf.Path
	if scriptPath == "" {
		return nil, nil
	}

	logger := log.With().Str("module", "lua").Str("phase", "startup").Str("path", scriptPath).
		Logger()

	fi, err := os.Stat(scriptPath)
	if err != nil {
		logger.Info().Msg("Script file not found")
		return nil, nil
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("lua script %v is a directory", scriptPath)
	}

	logger.Info().Msg("Loading script")
	file, err := os.Open(scriptPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return NewFromReader(log.With().Str("module", "lua").Logger(), extHost,
		bufio.NewReader(file), scriptPath)
}

// NewFromReader constructs a new Lua Host, loading Lua source from the provided reader.  The
// provided path is used in logging and error messages.  Scripts log to logger.
func NewFromReader(logger zerolog.Logger, extHost *extension.Host, r io.Reader, path string) (
	*Host, error) {
	chunk, err := parse.Parse(r, path)
	if err != nil {
		return nil, err
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	pool := newStatePool(logger, proto)
	h := &Host{extHost: extHost, pool: pool, logger: logger}
	ls, err := pool.getState()
	if err != nil {
		return nil, err
	}
	h.wireFunctions(ls)
	pool.putState(ls)

	return h, nil
}

// CreateChannel creates a channel and places it into the named global variable in newly created
// LStates.
func (h *Host) CreateChannel(name string) chan lua.LValue {
	return h.pool.createChannel(name)
}

// wireFunctions subscribes to the extension events the script defines a function for.
func (h *Host) wireFunctions(ls *lua.LState) {
	db, err := getDumbster(ls)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read dumbster global")
		return
	}

	events := h.extHost.Events
	if db.After.MessageDeleted != nil {
		h.Functions = append(h.Functions, "after.message_deleted")
		events.AfterMessageDeleted.AddListener(listenerName, h.handleAfterMessageDeleted)
	}
	if db.After.MessageStored != nil {
		h.Functions = append(h.Functions, "after.message_stored")
		events.AfterMessageStored.AddListener(listenerName, h.handleAfterMessageStored)
	}
	if db.Before.MessageStored != nil {
		h.Functions = append(h.Functions, "before.message_stored")
		events.BeforeMessageStored.AddListener(listenerName, h.handleBeforeMessageStored)
	}

	h.logger.Debug().Strs("functions", h.Functions).Msg("Wired Lua functions")
}

func (h *Host) handleAfterMessageDeleted(msg event.MessageMetadata) {
	logger := h.logger.With().Str("event", "after.message_deleted").Logger()
	h.callFunc(logger, func(db *Dumbster) *lua.LFunction { return db.After.MessageDeleted }, 0,
		func(ls *lua.LState) lua.LValue { return wrapMessageMetadata(ls, &msg) })
}

func (h *Host) handleAfterMessageStored(msg event.MessageMetadata) {
	logger := h.logger.With().Str("event", "after.message_stored").Logger()
	h.callFunc(logger, func(db *Dumbster) *lua.LFunction { return db.After.MessageStored }, 0,
		func(ls *lua.LState) lua.LValue { return wrapMessageMetadata(ls, &msg) })
}

func (h *Host) handleBeforeMessageStored(msg event.InboundMessage) *event.InboundMessage {
	logger := h.logger.With().Str("event", "before.message_stored").Logger()

	var result *event.InboundMessage
	ok := h.callFunc(logger, func(db *Dumbster) *lua.LFunction { return db.Before.MessageStored }, 1,
		func(ls *lua.LState) lua.LValue { return wrapInboundMessage(ls, &msg) },
		func(ls *lua.LState) {
			lval := ls.Get(-1)
			if lval == lua.LNil {
				return
			}
			im, err := unwrapInboundMessage(lval)
			if err != nil {
				logger.Error().Err(err).Msg("Bad response from Lua function")
				return
			}
			result = im
		})
	if !ok {
		return nil
	}

	return result
}

// callFunc checks out an LState, calls the function selected by fn with the argument built by
// arg, and hands the state to each result callback before returning it to the pool.  Returns false
// if the function could not be called.
func (h *Host) callFunc(
	logger zerolog.Logger,
	fn func(*Dumbster) *lua.LFunction,
	nret int,
	arg func(*lua.LState) lua.LValue,
	results ...func(*lua.LState),
) bool {
	ls, err := h.pool.getState()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get Lua state instance from pool")
		return false
	}
	defer h.pool.putState(ls)

	db, err := getDumbster(ls)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read dumbster global")
		return false
	}
	f := fn(db)
	if f == nil {
		return false
	}

	if err := ls.CallByParam(lua.P{Fn: f, NRet: nret, Protect: true}, arg(ls)); err != nil {
		logger.Error().Err(err).Msg("Failed to call Lua function")
		return false
	}
	for _, r := range results {
		r(ls)
	}

	return true
}
