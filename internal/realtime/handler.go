// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package realtime

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/token"
)

// Handler upgrades HTTP requests to channel connections. The access
// token travels in the "token" query parameter because browsers cannot
// set headers on WebSocket handshakes. Expiry is checked here only;
// an open connection outlives its token.
type Handler struct {
	hub     *Hub
	tokens  *token.Service
	origins []string
}

// NewHandler creates a WebSocket handler for the given hub.
func NewHandler(hub *Hub, tokens *token.Service, corsOrigins []string) *Handler {
	return &Handler{
		hub:     hub,
		tokens:  tokens,
		origins: corsOrigins,
	}
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin accepts same-origin requests, requests without an Origin
// header (non-browser clients), and configured CORS origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Channel returns the handshake handler for one channel name.
func (h *Handler) Channel(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			// Fall back to the standard header for non-browser clients.
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				tokenString = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if tokenString == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := h.tokens.Validate(tokenString)
		if err != nil {
			// The handshake is rejected before any state is created.
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		upgrader := h.upgrader()
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error().Err(err).Str("channel", channel).Msg("websocket upgrade failed")
			return
		}

		c := newConn(h.hub, ws, channel, claims.UserID(), claims.Username)
		h.hub.Register(c)
		c.start()
	}
}
