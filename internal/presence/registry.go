// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package presence tracks which users currently hold realtime
// connections and what status they advertise.
//
// A user may hold several connections at once (multiple tabs or
// devices). The user becomes online on the first connection and
// offline only when the last one drops; intermediate connects and
// disconnects do not change visible status.
package presence

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cineshare/cineshare/internal/models"
)

// Registry is an in-memory presence table. All methods are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]int
	status map[string]models.PresenceStatus
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]int),
		status: make(map[string]models.PresenceStatus),
	}
}

// Connect registers one more connection for the user. The returned
// change is meaningful only when changed is true, which happens on the
// first connection (offline to online transition).
func (r *Registry) Connect(userID string) (change models.PresenceChange, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[userID]++
	if r.conns[userID] == 1 {
		r.status[userID] = models.PresenceOnline
		return models.PresenceChange{UserID: userID, Status: models.PresenceOnline}, true
	}
	return models.PresenceChange{}, false
}

// Disconnect unregisters one connection. When the last connection
// drops the user transitions to offline and changed is true.
func (r *Registry) Disconnect(userID string) (change models.PresenceChange, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.conns[userID]
	if !ok {
		return models.PresenceChange{}, false
	}
	if n > 1 {
		r.conns[userID] = n - 1
		return models.PresenceChange{}, false
	}

	delete(r.conns, userID)
	delete(r.status, userID)
	return models.PresenceChange{UserID: userID, Status: models.PresenceOffline}, true
}

// SetStatus applies a user-requested status. Only online and away are
// selectable; offline is reserved for disconnect. Requests for users
// with no active connection are rejected.
func (r *Registry) SetStatus(userID string, status models.PresenceStatus) (change models.PresenceChange, changed bool, err error) {
	if !status.UserSelectable() {
		return models.PresenceChange{}, false, fmt.Errorf("status %q is not selectable", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] == 0 {
		return models.PresenceChange{}, false, fmt.Errorf("user %s has no active connection", userID)
	}
	if r.status[userID] == status {
		return models.PresenceChange{}, false, nil
	}

	r.status[userID] = status
	return models.PresenceChange{UserID: userID, Status: status}, true, nil
}

// Status returns the user's current status, offline when unknown.
func (r *Registry) Status(userID string) models.PresenceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.status[userID]; ok {
		return s
	}
	return models.PresenceOffline
}

// Online returns a snapshot of every connected user and their status,
// sorted by user ID for stable output.
func (r *Registry) Online() []models.PresenceChange {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.PresenceChange, 0, len(r.status))
	for userID, status := range r.status {
		out = append(out, models.PresenceChange{UserID: userID, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Connections returns the number of open connections for the user.
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID]
}
