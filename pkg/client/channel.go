// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Event is a server-to-client frame from a websocket channel.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChannelConfig tunes the reconnecting channel consumer.
type ChannelConfig struct {
	// MaxRetries bounds consecutive failed connection attempts before
	// the consumer gives up. 0 means the default of 5.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts. 0 means 2s.
	RetryDelay time.Duration

	// Buffer is the capacity of the delivered-events channel.
	Buffer int
}

// Channel consumes one websocket channel with automatic reconnection.
// A successful connection resets the retry budget.
type Channel struct {
	session *Session
	name    string
	config  ChannelConfig
	events  chan Event
	sendCh  chan outFrame
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// NewChannel prepares a consumer for the named channel
// ("notifications", "presence", "feed" or "messages").
func NewChannel(session *Session, name string, config ChannelConfig) *Channel {
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 2 * time.Second
	}
	if config.Buffer == 0 {
		config.Buffer = 64
	}
	return &Channel{
		session: session,
		name:    name,
		config:  config,
		events:  make(chan Event, config.Buffer),
		sendCh:  make(chan outFrame, config.Buffer),
	}
}

// Events is the stream of received frames. It is closed when Run
// returns.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Send queues a client-to-server event. Dropped with an error when the
// outbound buffer is full.
func (c *Channel) Send(event string, data any) error {
	select {
	case c.sendCh <- outFrame{Event: event, Data: data}:
		return nil
	default:
		return fmt.Errorf("client: send buffer full on channel %s", c.name)
	}
}

// Run connects and pumps events until the context is canceled or the
// retry budget is exhausted. A handshake rejected as unauthorized
// triggers one token refresh before counting as a failure.
func (c *Channel) Run(ctx context.Context) error {
	defer close(c.events)

	failures := 0
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			failures++
			if failures >= c.config.MaxRetries {
				return fmt.Errorf("client: channel %s: giving up after %d attempts: %w", c.name, failures, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay):
				continue
			}
		}

		failures = 0
		err = c.pump(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = err // connection dropped; reconnect
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := wsURL(c.session.baseURL, c.name, c.session.AccessToken())
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			if rerr := c.session.Refresh(ctx); rerr != nil {
				return nil, fmt.Errorf("client: refresh after rejected handshake: %w", rerr)
			}
			u, _ = wsURL(c.session.baseURL, c.name, c.session.AccessToken())
			conn, _, err = websocket.DefaultDialer.DialContext(ctx, u, nil)
			if err == nil {
				return conn, nil
			}
		}
		return nil, fmt.Errorf("client: dial channel %s: %w", c.name, err)
	}
	return conn, nil
}

// pump reads frames into the events channel and writes queued sends
// until the connection breaks or the context ends.
func (c *Channel) pump(ctx context.Context, conn *websocket.Conn) error {
	defer func() { _ = conn.Close() }()

	readErr := make(chan error, 1)
	go func() {
		for {
			var event Event
			if err := conn.ReadJSON(&event); err != nil {
				readErr <- err
				return
			}
			select {
			case c.events <- event:
			default:
				// Slow consumer; drop rather than stall the read loop.
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()
		case err := <-readErr:
			return err
		case frame := <-c.sendCh:
			if err := conn.WriteJSON(frame); err != nil {
				return err
			}
		}
	}
}

func wsURL(baseURL, channel, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("client: parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + channel
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
