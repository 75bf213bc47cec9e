// Package web provides the plumbing for Dumbster's RESTful API.
package web

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/msghub"
	"github.com/inbucket/dumbster/pkg/stringutil"
	"github.com/rs/zerolog/log"
)

// ExpWebSocketConnectsCurrent tracks the number of open WebSockets.
var ExpWebSocketConnectsCurrent = new(expvar.Int)

func init() {
	m := expvar.NewMap("http")
	m.Set("WebSocketConnectsCurrent", ExpWebSocketConnectsCurrent)
}

// Server serves the REST API.  Handlers registered on Router receive a Context built from the
// server's configuration, message manager and hub.
type Server struct {
	Router *mux.Router // Routes requests below the configured base path.

	rootConfig     *config.Root
	manager        message.Manager
	msgHub         *msghub.Hub
	globalShutdown chan bool
	http           *http.Server
	listener       net.Listener
	notify         chan error
}

// NewServer creates an unstarted web server.  Routes must be added to Router before Start.
func NewServer(conf *config.Root, shutdownChan chan bool, mm message.Manager, mh *msghub.Hub) *Server {
	s := &Server{
		rootConfig:     conf,
		manager:        mm,
		msgHub:         mh,
		globalShutdown: shutdownChan,
		notify:         make(chan error, 1),
	}

	root := mux.NewRouter()
	prefix := stringutil.MakePathPrefixer(conf.Web.BasePath)
	root.Path(prefix("/debug/vars")).Handler(expvar.Handler())
	answerUnrouted(root)

	s.Router = root.PathPrefix(prefix("/")).Subrouter()
	answerUnrouted(s.Router)
	s.Router.Use(requestLogging, s.injectContext)

	s.http = &http.Server{
		Addr:         conf.Web.Addr,
		Handler:      root,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Subrouter returns a router for paths below prefix.  Like Router, it answers unknown paths
// with 404 and known paths requested with the wrong method with 405.
func (s *Server) Subrouter(prefix string) *mux.Router {
	r := s.Router.PathPrefix(prefix).Subrouter()
	answerUnrouted(r)
	return r
}

// answerUnrouted installs the 404 and 405 handlers on r.  gorilla/mux does not carry a method
// mismatch out of nested subrouters reliably, so every level needs its own.
func answerUnrouted(r *mux.Router) {
	r.NotFoundHandler = unrouted(http.StatusNotFound)
	r.MethodNotAllowedHandler = unrouted(http.StatusMethodNotAllowed)
}

// ServeHTTP routes req, allowing the server to be exercised by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.http.Handler.ServeHTTP(w, req)
}

// Start begins listening for HTTP requests, blocking until ctx is canceled.
func (s *Server) Start(ctx context.Context) {
	slog := log.With().Str("module", "web").Str("phase", "startup").Str("addr", s.http.Addr).
		Logger()

	// We don't use ListenAndServe because it lacks a way to close the listener.
	var err error
	s.listener, err = net.Listen("tcp", s.http.Addr)
	if err != nil {
		slog.Error().Err(err).Msg("HTTP failed to start TCP listener")
		s.notify <- err
		s.emergencyShutdown()
		return
	}
	slog.Info().Msg("HTTP listening on tcp")

	go s.serve(ctx)

	<-ctx.Done()
	log.Debug().Str("module", "web").Str("phase", "shutdown").Msg("HTTP server shutting down on request")

	// Closing the listener will cause the serve() go routine to exit.
	if err := s.listener.Close(); err != nil {
		log.Debug().Str("module", "web").Str("phase", "shutdown").Err(err).
			Msg("Failed to close HTTP listener")
	}
}

// serve begins serving HTTP requests.
func (s *Server) serve(ctx context.Context) {
	// server.Serve blocks until we close the listener.
	err := s.http.Serve(s.listener)

	select {
	case <-ctx.Done():
	default:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Str("module", "web").Str("phase", "startup").Err(err).
				Msg("HTTP server failed")
			s.notify <- err
			s.emergencyShutdown()
		}
	}
}

// Notify allows the running web server to be monitored for a fatal error.
func (s *Server) Notify() <-chan error {
	return s.notify
}

func (s *Server) emergencyShutdown() {
	if s.globalShutdown == nil {
		return
	}
	select {
	case <-s.globalShutdown:
	default:
		close(s.globalShutdown)
	}
}
