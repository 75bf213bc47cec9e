package luahost

import (
	"net/http"
	"sync"
	"time"

	"github.com/cjoudrey/gluahttp"
	"github.com/cosmotek/loguago"
	json "github.com/inbucket/gopher-json"
	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// httpTimeout bounds requests made by scripts through the http module.
const httpTimeout = 10 * time.Second

// statePool lends out LStates that have already run the script.  An LState is not safe for
// concurrent use, so each event handler borrows its own.
//
// Globals added by createChannel only reach states built afterwards.  The pool tracks the
// generation each state was built in and discards states from earlier generations when they are
// returned.
type statePool struct {
	mu       sync.Mutex
	script   *lua.FunctionProto
	idle     []*lua.LState
	gen      int
	genOf    map[*lua.LState]int
	channels map[string]chan lua.LValue
	modules  map[string]lua.LGFunction
}

func newStatePool(logger zerolog.Logger, script *lua.FunctionProto) *statePool {
	return &statePool{
		script:   script,
		genOf:    make(map[*lua.LState]int),
		channels: make(map[string]chan lua.LValue),
		modules: map[string]lua.LGFunction{
			"http":   gluahttp.NewHttpModule(&http.Client{Timeout: httpTimeout}).Loader,
			"json":   json.Loader,
			"logger": loguago.NewLogger(logger).Loader,
		},
	}
}

// build creates an LState with modules, channels and types registered, then runs the script.
// Caller must hold mu.
func (lp *statePool) build() (*lua.LState, error) {
	ls := lua.NewState()
	for name, loader := range lp.modules {
		ls.PreloadModule(name, loader)
	}
	for name, ch := range lp.channels {
		ls.SetGlobal(name, lua.LChannel(ch))
	}
	registerDumbsterTypes(ls)
	registerInboundMessageType(ls)
	registerMailAddressType(ls)
	registerMessageMetadataType(ls)

	ls.Push(ls.NewFunctionFromProto(lp.script))
	if err := ls.PCall(0, lua.MultRet, nil); err != nil {
		ls.Close()
		return nil, err
	}
	lp.genOf[ls] = lp.gen
	return ls, nil
}

// getState borrows an idle LState, building one if none are idle.
func (lp *statePool) getState() (*lua.LState, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	last := len(lp.idle) - 1
	if last < 0 {
		return lp.build()
	}
	ls := lp.idle[last]
	lp.idle = lp.idle[:last]
	return ls, nil
}

// putState returns a borrowed LState with its stack emptied.  Closed and outdated states are
// dropped.
func (lp *statePool) putState(ls *lua.LState) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if gen, ok := lp.genOf[ls]; !ok || gen != lp.gen || ls.IsClosed() {
		lp.discard(ls)
		return
	}
	ls.SetTop(0)
	lp.idle = append(lp.idle, ls)
}

// createChannel adds a buffered channel global named name to every state built from now on.
func (lp *statePool) createChannel(name string) chan lua.LValue {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	ch := make(chan lua.LValue, 10)
	lp.channels[name] = ch
	lp.gen++
	for _, ls := range lp.idle {
		lp.discard(ls)
	}
	lp.idle = lp.idle[:0]
	return ch
}

// discard closes ls and forgets it.  Caller must hold mu.
func (lp *statePool) discard(ls *lua.LState) {
	delete(lp.genOf, ls)
	if !ls.IsClosed() {
		ls.Close()
	}
}
