package web

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Handler serves a routed API request.  A returned error is logged and reported to the client as
// a 500.
type Handler func(http.ResponseWriter, *http.Request, *Context) error

func (h Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx, err := NewContext(req)
	if err == nil {
		err = h(w, req, ctx)
	}
	if err != nil {
		hlog.FromRequest(req).Error().Err(err).Msg("Request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// requestLogging attaches a web module logger carrying request details to each request, and
// logs every completed request at debug level.
func requestLogging(next http.Handler) http.Handler {
	logger := log.With().Str("module", "web").Logger()
	chain := hlog.AccessHandler(logAccess)(next)
	chain = hlog.URLHandler("path")(chain)
	chain = hlog.MethodHandler("method")(chain)
	chain = hlog.RemoteAddrHandler("remote")(chain)
	return hlog.NewHandler(logger)(chain)
}

func logAccess(req *http.Request, status, size int, elapsed time.Duration) {
	level := zerolog.DebugLevel
	if status >= http.StatusBadRequest {
		level = zerolog.WarnLevel
	}
	hlog.FromRequest(req).WithLevel(level).Int("status", status).Int("size", size).
		Dur("elapsed", elapsed).Msg("Request")
}

// unrouted answers requests the router could not match with status.
func unrouted(status int) http.Handler {
	return requestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
}
