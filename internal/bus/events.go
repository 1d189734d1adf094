// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package bus

import "github.com/cineshare/cineshare/internal/models"

// NotificationCreated is the wire form of a notification on the bus.
// The target user travels alongside the event because the event's own
// UserID field is never serialized to clients.
type NotificationCreated struct {
	UserID       string                   `json:"user_id"`
	Notification models.NotificationEvent `json:"notification"`
}

// Typing is a relayed typing indicator. Not persisted anywhere.
type Typing struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}
