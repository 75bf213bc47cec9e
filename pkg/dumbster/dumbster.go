// Package dumbster embeds a fake SMTP server in tests.  Messages received by the server are held
// in memory until cleared:
//
//	srv, err := dumbster.Start(0)
//	if err != nil {
//		t.Fatal(err)
//	}
//	defer srv.Stop()
//	// send mail to srv.Addr()
//	msgs := srv.ReceivedEmail()
package dumbster

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/protocol"
	"github.com/inbucket/dumbster/pkg/server/smtp"
	"github.com/rs/zerolog/log"
)

// Email is a message received by the server, with the envelope it was sent under.
type Email struct {
	*protocol.Message
	From       string
	Recipients []string
	Received   time.Time
}

// Server is an embedded SMTP server recording every message it receives.
type Server struct {
	smtp   *smtp.Server
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	received []*Email
	stopOnce sync.Once
}

// Start listens for SMTP on the loopback interface at port; zero picks a free port.
func Start(port int) (*Server, error) {
	return StartConfig(config.SMTP{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Domain:  "localhost",
		Timeout: 30 * time.Second,
	})
}

// StartConfig listens for SMTP with the provided configuration.
func StartConfig(cfg config.SMTP) (*Server, error) {
	s := &Server{done: make(chan struct{})}
	s.smtp = smtp.NewServer(cfg, nil, smtp.DelivererFunc(s.record))
	if err := s.smtp.Listen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer close(s.done)
		s.smtp.Serve(ctx)
	}()

	log.Debug().Str("module", "dumbster").Str("addr", s.Addr().String()).Msg("Embedded server started")
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.smtp.Addr()
}

// Port returns the listening TCP port.
func (s *Server) Port() int {
	if a, ok := s.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// Stop closes the listener and waits for open sessions to finish.  Stop may be called more than
// once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
		s.smtp.Drain()
		log.Debug().Str("module", "dumbster").Msg("Embedded server stopped")
	})
}

// ReceivedEmail returns a snapshot of the received messages, oldest first.
func (s *Server) ReceivedEmail() []*Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Email(nil), s.received...)
}

// ReceivedEmailCount returns the number of received messages.
func (s *Server) ReceivedEmailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// ClearReceivedEmail forgets all received messages.
func (s *Server) ClearReceivedEmail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = nil
}

func (s *Server) record(from string, recipients []string, msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, &Email{
		Message:    msg,
		From:       from,
		Recipients: append([]string(nil), recipients...),
		Received:   time.Now(),
	})
	return nil
}
