package test

import (
	"strings"
	"testing"
	"time"

	"github.com/cosmotek/loguago"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

// LuaInit is the Lua prelude run by NewLuaState.  Scripts that assert inside event handlers set
// `async = true`; a failure is then logged and clears `test_ok` rather than raising, as an error
// raised in a handler would never reach the test.
const LuaInit = `
	local logger = require("logger")

	async = false
	test_ok = true

	local function fail(message)
		if not async then
			error(message, 3)
		end
		logger.error(message, {from = "lua test"})
		test_ok = false
	end

	function assert_async(value, message)
		if not value then
			fail(message)
		end
	end

	-- Tables are compared as lists.
	function assert_eq(got, want)
		if type(got) ~= "table" or type(want) ~= "table" then
			if got ~= want then
				fail("got " .. tostring(got) .. ", wanted " .. tostring(want))
			end
			return
		end
		if #got ~= #want then
			fail("got " .. #got .. " elements, wanted " .. #want)
			return
		end
		for i = 1, #want do
			assert_eq(got[i], want[i])
		end
	end
`

// NewLuaState returns an LState with the logger module preloaded and LuaInit evaluated.  The
// state is closed when t completes.  Lua log output is collected in the returned builder.
func NewLuaState(t testing.TB) (*lua.LState, *strings.Builder) {
	t.Helper()
	logged := new(strings.Builder)
	ls := lua.NewState()
	t.Cleanup(ls.Close)
	ls.PreloadModule("logger", loguago.NewLogger(zerolog.New(logged)).Loader)
	require.NoError(t, ls.DoString(LuaInit), "Lua prelude")
	return ls, logged
}

// AssertNotified waits up to two seconds for a script to send a truthy value on notify.
func AssertNotified(t *testing.T, notify chan lua.LValue) {
	t.Helper()
	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()
	select {
	case lv := <-notify:
		require.True(t, lua.LVAsBool(lv), "Lua reported failure: %v", lv)
	case <-timer.C:
		require.FailNow(t, "no notification from Lua event handler")
	}
}
