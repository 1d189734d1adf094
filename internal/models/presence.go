// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package models

// PresenceStatus is a user's realtime connection status.
type PresenceStatus string

const (
	// PresenceOnline is set on first connection or by explicit request.
	PresenceOnline PresenceStatus = "online"

	// PresenceAway is only ever set by explicit request.
	PresenceAway PresenceStatus = "away"

	// PresenceOffline is only reachable via disconnect; a connected user
	// cannot choose it.
	PresenceOffline PresenceStatus = "offline"
)

// Valid reports whether s is one of the defined statuses.
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceOnline, PresenceAway, PresenceOffline:
		return true
	}
	return false
}

// UserSelectable reports whether a connected user may request this status.
func (s PresenceStatus) UserSelectable() bool {
	return s == PresenceOnline || s == PresenceAway
}

// PresenceChange is broadcast to presence-channel clients on every
// status transition.
type PresenceChange struct {
	UserID string         `json:"user_id"`
	Status PresenceStatus `json:"status"`
}
