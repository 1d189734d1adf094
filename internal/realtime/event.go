// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package realtime

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cineshare/cineshare/internal/validation"
)

// Channel names. Each WebSocket endpoint serves exactly one channel.
const (
	ChannelNotifications = "notifications"
	ChannelPresence      = "presence"
	ChannelFeed          = "feed"
	ChannelMessaging     = "messaging"
)

// Client to server events.
const (
	EventMarkAsRead        = "markAsRead"
	EventMarkAllAsRead     = "markAllAsRead"
	EventUpdateStatus      = "updateStatus"
	EventGetOnlineUsers    = "getOnlineUsers"
	EventSubscribe         = "subscribe"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "sendMessage"
	EventTyping            = "typing"
)

// Server to client events.
const (
	EventNotification    = "notification"
	EventPresenceChange  = "presenceChange"
	EventOnlineUsersList = "onlineUsersList"
	EventNewActivity     = "newActivity"
	EventNewMessage      = "newMessage"
	EventUserTyping      = "userTyping"
	EventError           = "error"
)

// Event is the envelope for every message in both directions. Inbound
// data is kept raw until the event name selects a payload type; each
// payload is validated before the handler runs.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outEvent is the server-to-client envelope with an already-typed
// payload.
type outEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound payload shapes. Tags define the channel-boundary contract.
type markAsReadPayload struct {
	NotificationID string `json:"notificationId" validate:"required"`
}

type updateStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=online away"`
}

type subscribePayload struct {
	UserID string `json:"userId" validate:"required"`
}

type conversationPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type sendMessagePayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required,max=2000"`
}

type typingPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	IsTyping       bool   `json:"isTyping"`
}

// decodePayload unmarshals and validates an inbound event payload.
func decodePayload(ev Event, dst any) error {
	if len(ev.Data) == 0 {
		return fmt.Errorf("%s: missing payload", ev.Event)
	}
	if err := json.Unmarshal(ev.Data, dst); err != nil {
		return fmt.Errorf("%s: malformed payload: %w", ev.Event, err)
	}
	if verr := validation.Struct(dst); verr != nil {
		return fmt.Errorf("%s: %w", ev.Event, verr)
	}
	return nil
}
