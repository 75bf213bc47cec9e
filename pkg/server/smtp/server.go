// Package smtp serves the Dumbster SMTP protocol engine over TCP.
package smtp

import (
	"context"
	"errors"
	"expvar"
	"net"
	"sync"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/metric"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Counters published under the "smtp" expvar map.  Each total also has a per-minute history.
var (
	connectsTotal   = new(expvar.Int)
	connectsCurrent = new(expvar.Int)
	receivedTotal   = new(expvar.Int)
	errorsTotal     = new(expvar.Int)
	warnsTotal      = new(expvar.Int)
)

func init() {
	m := expvar.NewMap("smtp")
	m.Set("ConnectsCurrent", connectsCurrent)
	for name, total := range map[string]*expvar.Int{
		"Connects": connectsTotal,
		"Received": receivedTotal,
		"Errors":   errorsTotal,
		"Warns":    warnsTotal,
	} {
		m.Set(name+"Total", total)
		m.Set(name+"Hist", metric.NewHistory(total))
	}
}

// countProblems is a zerolog hook tallying warnings and errors logged by sessions.
var countProblems = zerolog.HookFunc(func(_ *zerolog.Event, level zerolog.Level, _ string) {
	switch level {
	case zerolog.WarnLevel:
		warnsTotal.Add(1)
	case zerolog.ErrorLevel:
		errorsTotal.Add(1)
	}
})

// Server accepts SMTP connections and runs a protocol session on each of them.
type Server struct {
	config         config.SMTP
	globalShutdown chan bool // Closed when the server fails; may be nil.
	deliverer      Deliverer
	listener       net.Listener
	sessions       sync.WaitGroup
	logger         zerolog.Logger
}

// NewServer creates an SMTP server that hands received messages to deliverer.  Call Listen, then
// Serve.
func NewServer(smtpConfig config.SMTP, globalShutdown chan bool, deliverer Deliverer) *Server {
	return &Server{
		config:         smtpConfig,
		globalShutdown: globalShutdown,
		deliverer:      deliverer,
		logger:         log.With().Str("module", "smtp").Logger(),
	}
}

// Listen binds the configured TCP address.  Connections queue until Serve is called.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp4", s.config.Addr)
	if err != nil {
		s.logger.Error().Str("phase", "startup").Err(err).Msg("SMTP failed to listen")
		return err
	}
	s.listener = l
	s.logger.Info().Str("phase", "startup").Str("addr", l.Addr().String()).
		Msg("SMTP listening on tcp4")
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is canceled, at which point the listener is closed.
// Sessions already running continue; see Drain.
func (s *Server) Serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		s.logger.Debug().Str("phase", "shutdown").
			Msg("SMTP shutdown requested, connections will be drained")
		if err := s.listener.Close(); err != nil {
			s.logger.Error().Str("phase", "shutdown").Err(err).Msg("Failed to close SMTP listener")
		}
	})
	defer stop()

	var backoff time.Duration
	for id := 1; ; id++ {
		conn, err := s.listener.Accept()
		if err == nil {
			backoff = 0
			s.sessions.Add(1)
			go s.startSession(id, conn, log.Logger)
			continue
		}

		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.logger.Error().Err(err).Msgf("SMTP accept error; retrying in %v", backoff)
			time.Sleep(backoff)
			continue
		}

		if ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("SMTP accept failed, shutting down")
			s.emergencyShutdown()
		}
		return
	}
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

// Drain blocks until every session has ended.
func (s *Server) Drain() {
	s.sessions.Wait()
	s.logger.Debug().Str("phase", "shutdown").Msg("SMTP connections have drained")
}
