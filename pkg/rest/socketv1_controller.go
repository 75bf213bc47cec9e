package rest

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/msghub"
	"github.com/inbucket/dumbster/pkg/rest/model"
	"github.com/inbucket/dumbster/pkg/server/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WebSocket keepalive: the client must answer a ping within pongWait.
const (
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	writeWait    = 10 * time.Second
	readLimit    = 512
	monitorQueue = 100 // Events buffered per client; a slower client is dropped.
)

var (
	errMonitorClosed = errors.New("monitor closed")
	errMonitorBehind = errors.New("monitor client fell behind")
)

var upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}

// monitor is a msghub.Listener that forwards store and delete events to one WebSocket client.
// The hub must never block on a client, so events are queued and a full queue drops the client.
type monitor struct {
	hub    *msghub.Hub
	events chan *model.JSONMonitorEventV1
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// watch registers a new monitor with hub.
func watch(hub *msghub.Hub) *monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &monitor{
		hub:    hub,
		events: make(chan *model.JSONMonitorEventV1, monitorQueue),
		ctx:    ctx,
		cancel: cancel,
	}
	hub.AddListener(m)
	return m
}

func (m *monitor) Receive(msg event.MessageMetadata) error {
	return m.queue("message-stored", metadataToHeader(&msg))
}

func (m *monitor) Delete(id string) error {
	return m.queue("message-deleted", &model.JSONMessageHeaderV1{ID: id})
}

func (m *monitor) queue(variant string, header *model.JSONMessageHeaderV1) error {
	if m.ctx.Err() != nil {
		return errMonitorClosed
	}
	select {
	case m.events <- &model.JSONMonitorEventV1{Variant: variant, Header: header}:
		return nil
	default:
		return errMonitorBehind
	}
}

// stop unregisters the monitor and ends its write loop.
func (m *monitor) stop() {
	m.once.Do(func() {
		m.cancel()
		m.hub.RemoveListener(m)
	})
}

// drainReads consumes client frames, which are ignored, so that pongs and close frames are
// processed.  Returns when the connection fails or closes.
func (m *monitor) drainReads(conn *websocket.Conn, logger zerolog.Logger) {
	defer m.stop()
	conn.SetReadLimit(readLimit)
	extend := func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	conn.SetPongHandler(extend)

	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure,
			websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			logger.Warn().Err(err).Msg("WebSocket read failed")
		} else {
			logger.Debug().Msg("WebSocket closed by client")
		}
		return
	}
}

// writeEvents sends queued events as JSON, pinging the client when idle, until stopped.
func (m *monitor) writeEvents(conn *websocket.Conn, logger zerolog.Logger) {
	defer m.stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case ev := <-m.events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = conn.WriteJSON(ev)
		case <-ping.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		case <-m.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
		if err != nil {
			logger.Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

// MonitorMessagesV1 upgrades the request to a WebSocket that streams a JSONMonitorEventV1 for
// each message stored or deleted, starting with the hub's recent history.
func MonitorMessagesV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Warn().Str("module", "rest").Err(err).Msg("WebSocket upgrade failed")
		return nil
	}
	web.ExpWebSocketConnectsCurrent.Add(1)
	defer func() {
		_ = conn.Close()
		web.ExpWebSocketConnectsCurrent.Add(-1)
	}()

	logger := log.With().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Debug().Msg("Monitor connected")

	m := watch(ctx.MsgHub)
	go m.writeEvents(conn, logger)
	m.drainReads(conn, logger)
	return nil
}
