// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
	sendBufferSize = 256
)

// connIDCounter generates unique, monotonically increasing connection
// IDs so fan-out can iterate connections in a stable order.
var connIDCounter atomic.Uint64

// Conn is one authenticated WebSocket connection bound to a single
// channel. A user may hold many of them.
type Conn struct {
	id       uint64
	userID   string
	username string
	channel  string
	hub      *Hub
	ws       *websocket.Conn

	// mu orders queue against shutdown: fan-out runs outside the hub
	// lock, so the send channel must never close mid-send.
	mu     sync.Mutex
	closed bool
	send   chan outEvent
}

func newConn(hub *Hub, ws *websocket.Conn, channel, userID, username string) *Conn {
	return &Conn{
		id:       connIDCounter.Add(1),
		userID:   userID,
		username: username,
		channel:  channel,
		hub:      hub,
		ws:       ws,
		send:     make(chan outEvent, sendBufferSize),
	}
}

// queue enqueues an event for delivery, dropping it when the client's
// send buffer is full or the connection is already shut down. Slow
// consumers never block the hub.
func (c *Conn) queue(ev outEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
		metrics.RecordWSEvent(c.channel, ev.Event, "out")
	default:
		metrics.RecordWSDrop(c.channel)
		logging.Warn().
			Str("channel", c.channel).
			Str("user_id", c.userID).
			Str("event", ev.Event).
			Msg("send buffer full, dropping event")
	}
}

// shutdown closes the send channel exactly once. Idempotent; safe to
// call while fan-out goroutines still hold a stale snapshot of this
// connection.
func (c *Conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads inbound events until the connection dies, then
// unregisters from the hub.
func (c *Conn) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev Event
		if err := c.ws.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("channel", c.channel).Msg("unexpected websocket close")
			}
			break
		}

		metrics.RecordWSEvent(c.channel, ev.Event, "in")
		if err := c.hub.handleEvent(c, ev); err != nil {
			// Protocol errors are reported to the offending client
			// only; the connection stays open.
			c.queue(outEvent{Event: EventError, Data: map[string]string{"message": err.Error()}})
		}
	}
}

// writePump writes queued events and keepalive pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				logging.Error().Err(err).Str("channel", c.channel).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// start launches the pumps after the connection is registered.
func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}
