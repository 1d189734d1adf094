// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package models

import "time"

// Notification types.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMention = "mention"
)

// NotificationEvent is a per-user notification. The durable copy (with
// read state) lives in the store; realtime delivery is best-effort.
type NotificationEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Type        string    `json:"type"`
	ActorID     string    `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	ActorAvatar string    `json:"actor_avatar,omitempty"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// Activity types fanned out on the feed channel.
const (
	ActivityNewReview = "new_review"
	ActivityNewFollow = "new_follow"
)

// Activity is a feed event pushed to all subscribed feed connections.
// The server does not filter by social graph; filtering is a client or
// producer concern.
type Activity struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	SubjectID  string    `json:"subject_id,omitempty"`
	MovieID    string    `json:"movie_id,omitempty"`
	MovieTitle string    `json:"movie_title,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
