// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package models

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a two-party direct-message thread. Its ID is derived
// from the participant pair so that both sides resolve the same thread.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	LastMessage  time.Time `json:"last_message"`
}

// ConversationID derives the canonical conversation ID for a user pair.
// The pair is sorted so that (a,b) and (b,a) map to the same conversation.
func ConversationID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// Message is a persisted direct message. Seq is a per-conversation
// monotonically increasing sequence number assigned at persistence time;
// consumers may reorder and deduplicate by it.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	RecipientID    string    `json:"recipient_id"`
	Content        string    `json:"content"`
	Seq            uint64    `json:"seq"`
	CreatedAt      time.Time `json:"created_at"`
}
