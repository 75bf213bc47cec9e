package smtp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"time"

	"github.com/inbucket/dumbster/pkg/protocol"
	"github.com/rs/zerolog"
)

// Session holds the network state of an SMTP session; protocol state lives in proto.
type Session struct {
	*Server                     // Server this session belongs to.
	id         int              // Session ID.
	conn       net.Conn         // TCP connection.
	remoteHost string           // Remote host.
	sendError  error            // Last network send error.
	proto      *protocol.Session
	text       *textproto.Conn
	logger     zerolog.Logger // Session specific logger.
	debug      bool           // Print network traffic to stdout.
}

// NewSession creates a new Session for the given connection.
func NewSession(server *Server, id int, conn net.Conn, logger zerolog.Logger) *Session {
	remoteHost := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(remoteHost); err == nil {
		remoteHost = host
	}

	return &Session{
		Server:     server,
		id:         id,
		conn:       conn,
		remoteHost: remoteHost,
		proto:      protocol.NewSession(protocol.Engine{Domain: server.config.Domain}),
		text:       textproto.NewConn(conn),
		logger:     logger,
		debug:      server.config.Debug,
	}
}

func (s *Session) String() string {
	return fmt.Sprintf("Session{id: %v, state: %v}", s.id, s.proto.State())
}

// Session flow:
//  1. Send greeting produced by the CONNECT action
//  2. Read a line, hand it to the protocol session
//  3. Deliver any completed message, send the reply unless it is silent
//  4. Close after a 221 reply, otherwise goto 2
func (s *Server) startSession(id int, conn net.Conn, logger zerolog.Logger) {
	logger = logger.Hook(countProblems).With().
		Str("module", "smtp").
		Str("remote", conn.RemoteAddr().String()).
		Int("session", id).Logger()
	logger.Info().Msg("Starting SMTP session")

	connectsCurrent.Add(1)
	connectsTotal.Add(1)
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn().Err(err).Msg("Closing connection")
		}
		s.sessions.Done()
		connectsCurrent.Add(-1)
	}()

	ssn := NewSession(s, id, conn, logger)
	ssn.reply(ssn.proto.Connect())

	for ssn.sendError == nil {
		line, err := ssn.readLine()
		if err != nil {
			ssn.readError(err)
			break
		}

		resp, msg, err := ssn.proto.Handle(line)
		if err != nil {
			logger.Warn().Err(err).Msg("Message assembly failed")
		}
		if msg != nil {
			ssn.deliver(msg)
		}
		if resp.Code >= 500 {
			logger.Warn().Str("line", line).Msgf("Rejected: %v", resp)
		}
		ssn.reply(resp)
		if resp.Code == 221 {
			break
		}
	}

	if ssn.sendError != nil {
		logger.Warn().Err(ssn.sendError).Msg("Network send error")
	}
	logger.Info().Msgf("Closing connection in %v", ssn.proto.State())
}

// readError logs the read failure and, for idle timeouts, says goodbye.
func (s *Session) readError(err error) {
	if errors.Is(err, io.EOF) {
		s.logger.Warn().Msg("Connection closed by client")
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Warn().Msg("Idle timeout")
		s.send("221 Idle timeout, bye bye")
		return
	}
	s.logger.Warn().Err(err).Msg("Connection error")
}

// deliver passes a completed message to the server's Deliverer.
func (s *Session) deliver(msg *protocol.Message) {
	from, recipients := s.proto.From(), s.proto.Recipients()
	logger := s.logger.With().Str("from", from).Strs("recipients", recipients).Logger()
	if err := s.deliverer.Deliver(from, recipients, msg); err != nil {
		logger.Error().Err(err).Msg("Failed to deliver message")
		return
	}
	receivedTotal.Add(1)
	logger.Info().Int("size", len(msg.Raw)).Msg("Message received")
}

// reply sends resp to the client unless it is silent.
func (s *Session) reply(resp protocol.Response) {
	if resp.Silent() {
		return
	}
	s.send(resp.String())
}

// nextDeadline calculates the next read or write deadline based on configured timeout.
func (s *Session) nextDeadline() time.Time {
	return time.Now().Add(s.config.Timeout)
}

// send writes msg and a CRLF, storing errors in Session.sendError.
func (s *Session) send(msg string) {
	if err := s.conn.SetWriteDeadline(s.nextDeadline()); err != nil {
		s.sendError = err
		return
	}
	if err := s.text.PrintfLine("%s", msg); err != nil {
		s.sendError = err
		s.logger.Warn().Msgf("Failed to send: %q", msg)
		return
	}
	if s.debug {
		fmt.Printf("%04d > %v\n", s.id, msg)
	}
}

// readLine reads a line of input, without its terminator, respecting deadlines.
func (s *Session) readLine() (string, error) {
	if err := s.conn.SetReadDeadline(s.nextDeadline()); err != nil {
		return "", err
	}
	line, err := s.text.ReadLine()
	if err != nil {
		return "", err
	}
	if s.debug {
		fmt.Printf("%04d   %v\n", s.id, line)
	}
	s.logger.Debug().Msgf("Line received: %v", line)
	return line, nil
}
