// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package realtime implements the WebSocket fan-out layer: per-user
// notifications, presence broadcast, the activity feed, and direct
// messaging rooms.
//
// All domain events travel through the event bus rather than directly
// between connections. The hub subscribes to the bus and delivers to
// its local connections, so the same code path works whether events
// originate in this process or, with the NATS transport, on another
// instance.
package realtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/cineshare/cineshare/internal/bus"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/metrics"
	"github.com/cineshare/cineshare/internal/models"
	"github.com/cineshare/cineshare/internal/presence"
)

// Store is the slice of persistence the hub needs.
type Store interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

const storeTimeout = 5 * time.Second

// Hub routes events between the bus and local WebSocket connections.
type Hub struct {
	store    Store
	registry *presence.Registry
	bus      *bus.Bus

	mu sync.RWMutex
	// conns maps channel -> userID -> connection set.
	conns map[string]map[string]map[*Conn]bool
	// rooms maps conversationID -> joined connections. Membership is
	// connection-scoped; a reconnecting client must rejoin.
	rooms map[string]map[*Conn]bool
	// feedSubs holds feed connections that sent an explicit subscribe.
	feedSubs map[*Conn]bool
	// typing maps a connection to the conversations it last reported
	// typing in, so disconnects can clear stale indicators.
	typing map[*Conn]map[string]bool

	ready     chan struct{}
	readyOnce sync.Once
}

// NewHub creates a hub bound to its persistence, presence, and bus
// dependencies.
func NewHub(st Store, registry *presence.Registry, b *bus.Bus) *Hub {
	h := &Hub{
		store:    st,
		registry: registry,
		bus:      b,
		conns:    make(map[string]map[string]map[*Conn]bool),
		rooms:    make(map[string]map[*Conn]bool),
		feedSubs: make(map[*Conn]bool),
		typing:   make(map[*Conn]map[string]bool),
		ready:    make(chan struct{}),
	}
	for _, ch := range []string{ChannelNotifications, ChannelPresence, ChannelFeed, ChannelMessaging} {
		h.conns[ch] = make(map[string]map[*Conn]bool)
	}
	return h
}

// Run subscribes to every bus topic and fans events out to local
// connections until ctx is canceled. Designed to run under a
// supervisor; returns ctx.Err() on shutdown.
func (h *Hub) Run(ctx context.Context) error {
	handlers := map[string]func(payload []byte) error{
		bus.TopicPresenceChanged:     h.onPresenceChanged,
		bus.TopicNotificationCreated: h.onNotificationCreated,
		bus.TopicFeedActivity:        h.onFeedActivity,
		bus.TopicConversationMessage: h.onConversationMessage,
		bus.TopicConversationTyping:  h.onConversationTyping,
	}

	var wg sync.WaitGroup
	for topic, handle := range handlers {
		messages, err := h.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		wg.Add(1)
		go func(topic string, handle func([]byte) error) {
			defer wg.Done()
			for msg := range messages {
				if err := handle(msg.Payload); err != nil {
					logging.Error().Err(err).Str("topic", topic).Msg("failed to handle bus event")
					msg.Nack()
					continue
				}
				msg.Ack()
			}
		}(topic, handle)
	}

	h.readyOnce.Do(func() { close(h.ready) })
	logging.Info().Msg("realtime hub running")
	<-ctx.Done()
	wg.Wait()
	h.closeAll()
	logging.Info().Str("component", "realtime-hub").Msg("realtime hub stopped")
	return ctx.Err()
}

// Ready is closed once the hub's bus subscriptions are in place.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// Register attaches an authenticated connection to its channel and
// starts the pumps.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	users := h.conns[c.channel]
	if users[c.userID] == nil {
		users[c.userID] = make(map[*Conn]bool)
	}
	users[c.userID][c] = true
	h.mu.Unlock()

	metrics.RecordWSConnect()
	logging.Info().
		Str("channel", c.channel).
		Str("user_id", c.userID).
		Msg("websocket client connected")

	if change, changed := h.registry.Connect(c.userID); changed {
		h.publish(bus.TopicPresenceChanged, change)
	}
}

// unregister removes a connection, clears room membership and typing
// state, and updates presence.
func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	users := h.conns[c.channel]
	set, ok := users[c.userID]
	if !ok || !set[c] {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(users, c.userID)
	}
	delete(h.feedSubs, c)
	for convID := range h.rooms {
		delete(h.rooms[convID], c)
		if len(h.rooms[convID]) == 0 {
			delete(h.rooms, convID)
		}
	}
	stale := h.typing[c]
	delete(h.typing, c)
	h.mu.Unlock()

	c.shutdown()

	metrics.RecordWSDisconnect()
	logging.Info().
		Str("channel", c.channel).
		Str("user_id", c.userID).
		Msg("websocket client disconnected")

	// A disconnect mid-typing would leave peers with a stale
	// indicator, so clear it for them.
	for convID := range stale {
		h.publish(bus.TopicConversationTyping, bus.Typing{
			ConversationID: convID,
			UserID:         c.userID,
			IsTyping:       false,
		})
	}

	if change, changed := h.registry.Disconnect(c.userID); changed {
		h.publish(bus.TopicPresenceChanged, change)
	}
}

// closeAll drops every connection, in ID order for predictable
// shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	var all []*Conn
	for _, users := range h.conns {
		for _, set := range users {
			for c := range set {
				all = append(all, c)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	for _, c := range all {
		c.shutdown()
	}
	h.conns = make(map[string]map[string]map[*Conn]bool)
	for _, ch := range []string{ChannelNotifications, ChannelPresence, ChannelFeed, ChannelMessaging} {
		h.conns[ch] = make(map[string]map[*Conn]bool)
	}
	h.rooms = make(map[string]map[*Conn]bool)
	h.feedSubs = make(map[*Conn]bool)
	h.typing = make(map[*Conn]map[string]bool)
}

func (h *Hub) publish(topic string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := h.bus.Publish(ctx, topic, payload); err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}

// handleEvent dispatches one inbound client event. Returned errors are
// sent back to the client as error events.
func (h *Hub) handleEvent(c *Conn, ev Event) error {
	switch c.channel {
	case ChannelNotifications:
		return h.handleNotificationsEvent(c, ev)
	case ChannelPresence:
		return h.handlePresenceEvent(c, ev)
	case ChannelFeed:
		return h.handleFeedEvent(c, ev)
	case ChannelMessaging:
		return h.handleMessagingEvent(c, ev)
	}
	return fmt.Errorf("unknown channel %q", c.channel)
}

func (h *Hub) handleNotificationsEvent(c *Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	switch ev.Event {
	case EventMarkAsRead:
		var p markAsReadPayload
		if err := decodePayload(ev, &p); err != nil {
			return err
		}
		return h.store.MarkNotificationRead(ctx, c.userID, p.NotificationID)

	case EventMarkAllAsRead:
		_, err := h.store.MarkAllNotificationsRead(ctx, c.userID)
		return err
	}
	return fmt.Errorf("unknown event %q on %s channel", ev.Event, c.channel)
}

func (h *Hub) handlePresenceEvent(c *Conn, ev Event) error {
	switch ev.Event {
	case EventUpdateStatus:
		var p updateStatusPayload
		if err := decodePayload(ev, &p); err != nil {
			return err
		}
		change, changed, err := h.registry.SetStatus(c.userID, models.PresenceStatus(p.Status))
		if err != nil {
			return err
		}
		if changed {
			h.publish(bus.TopicPresenceChanged, change)
		}
		return nil

	case EventGetOnlineUsers:
		// Snapshot is request-reply, not broadcast.
		c.queue(outEvent{Event: EventOnlineUsersList, Data: h.registry.Online()})
		return nil
	}
	return fmt.Errorf("unknown event %q on %s channel", ev.Event, c.channel)
}

func (h *Hub) handleFeedEvent(c *Conn, ev Event) error {
	if ev.Event != EventSubscribe {
		return fmt.Errorf("unknown event %q on %s channel", ev.Event, c.channel)
	}
	var p subscribePayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}
	h.mu.Lock()
	h.feedSubs[c] = true
	h.mu.Unlock()
	return nil
}

func (h *Hub) handleMessagingEvent(c *Conn, ev Event) error {
	switch ev.Event {
	case EventJoinConversation:
		var p conversationPayload
		if err := decodePayload(ev, &p); err != nil {
			return err
		}
		h.mu.Lock()
		if h.rooms[p.ConversationID] == nil {
			h.rooms[p.ConversationID] = make(map[*Conn]bool)
		}
		h.rooms[p.ConversationID][c] = true
		h.mu.Unlock()
		return nil

	case EventLeaveConversation:
		var p conversationPayload
		if err := decodePayload(ev, &p); err != nil {
			return err
		}
		h.mu.Lock()
		delete(h.rooms[p.ConversationID], c)
		if len(h.rooms[p.ConversationID]) == 0 {
			delete(h.rooms, p.ConversationID)
		}
		h.mu.Unlock()
		return nil

	case EventSendMessage:
		var p sendMessagePayload
		if err := decodePayload(ev, &p); err != nil {
			return err
		}
		msg := &models.Message{
			SenderID:    c.userID,
			SenderName:  c.username,
			RecipientID: p.RecipientID,
			Content:     p.Content,
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		// Persist first: the sequence number assigned here defines
		// delivery order for the room.
		if err := h.store.AppendMessage(ctx, msg); err != nil {
			return err
		}
		return h.bus.Publish(ctx, bus.TopicConversationMessage, msg)

	case EventTyping:
		var p typingPayload
		if err := decodePayload(ev, &p); err != nil {
			return err
		}
		h.mu.Lock()
		if p.IsTyping {
			if h.typing[c] == nil {
				h.typing[c] = make(map[string]bool)
			}
			h.typing[c][p.ConversationID] = true
		} else if h.typing[c] != nil {
			delete(h.typing[c], p.ConversationID)
		}
		h.mu.Unlock()
		h.publish(bus.TopicConversationTyping, bus.Typing{
			ConversationID: p.ConversationID,
			UserID:         c.userID,
			IsTyping:       p.IsTyping,
		})
		return nil
	}
	return fmt.Errorf("unknown event %q on %s channel", ev.Event, c.channel)
}

// Bus event handlers. Each one decodes a payload and fans out to the
// relevant local connections.

func (h *Hub) onPresenceChanged(payload []byte) error {
	var change models.PresenceChange
	if err := decodeBusPayload(payload, &change); err != nil {
		return err
	}

	for _, c := range h.snapshotChannel(ChannelPresence) {
		c.queue(outEvent{Event: EventPresenceChange, Data: change})
	}
	return nil
}

func (h *Hub) onNotificationCreated(payload []byte) error {
	var created bus.NotificationCreated
	if err := decodeBusPayload(payload, &created); err != nil {
		return err
	}

	h.mu.RLock()
	conns := sortedConns(h.conns[ChannelNotifications][created.UserID])
	h.mu.RUnlock()

	// Zero connections means the realtime copy is dropped; the durable
	// copy is already in the store.
	for _, c := range conns {
		c.queue(outEvent{Event: EventNotification, Data: created.Notification})
	}
	return nil
}

func (h *Hub) onFeedActivity(payload []byte) error {
	var activity models.Activity
	if err := decodeBusPayload(payload, &activity); err != nil {
		return err
	}

	h.mu.RLock()
	subs := make([]*Conn, 0, len(h.feedSubs))
	for c := range h.feedSubs {
		subs = append(subs, c)
	}
	h.mu.RUnlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	for _, c := range subs {
		c.queue(outEvent{Event: EventNewActivity, Data: activity})
	}
	return nil
}

func (h *Hub) onConversationMessage(payload []byte) error {
	var msg models.Message
	if err := decodeBusPayload(payload, &msg); err != nil {
		return err
	}

	for _, c := range h.snapshotRoom(msg.ConversationID) {
		c.queue(outEvent{Event: EventNewMessage, Data: msg})
	}
	return nil
}

func (h *Hub) onConversationTyping(payload []byte) error {
	var typing bus.Typing
	if err := decodeBusPayload(payload, &typing); err != nil {
		return err
	}

	// Typing indicators go to the other room members only.
	for _, c := range h.snapshotRoom(typing.ConversationID) {
		if c.userID == typing.UserID {
			continue
		}
		c.queue(outEvent{Event: EventUserTyping, Data: map[string]any{
			"userId":   typing.UserID,
			"isTyping": typing.IsTyping,
		}})
	}
	return nil
}

// snapshotChannel returns every connection on a channel in ID order.
func (h *Hub) snapshotChannel(channel string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Conn
	for _, set := range h.conns[channel] {
		for c := range set {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// snapshotRoom returns the connections joined to a conversation in ID
// order.
func (h *Hub) snapshotRoom(conversationID string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedConns(h.rooms[conversationID])
}

func sortedConns(set map[*Conn]bool) []*Conn {
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func decodeBusPayload(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode bus payload: %w", err)
	}
	return nil
}
