// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cineshare/cineshare/internal/models"
)

// AddNotification persists the durable copy of a notification.
// Realtime delivery is handled separately and is best-effort; this copy
// is what the client sees on its next fetch.
func (s *Store) AddNotification(ctx context.Context, n *models.NotificationEvent) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}

	return s.update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixNotif+n.UserID+":"+n.ID, n)
	})
}

// ListNotifications returns all stored notifications for a user.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*models.NotificationEvent, error) {
	var notifications []*models.NotificationEvent
	err := s.scanPrefix(prefixNotif+userID+":", func(val []byte) error {
		var n models.NotificationEvent
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		n.UserID = userID
		notifications = append(notifications, &n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead sets read=true on one notification.
// Returns ErrNotFound when the notification does not belong to the user.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	key := prefixNotif + userID + ":" + notificationID
	return s.update(func(txn *badger.Txn) error {
		var n models.NotificationEvent
		if err := getJSON(txn, key, &n); err != nil {
			return err
		}
		if n.Read {
			return nil
		}
		n.Read = true
		return setJSON(txn, key, &n)
	})
}

// MarkAllNotificationsRead sets read=true on every notification for the
// user and returns how many were updated.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	notifications, err := s.ListNotifications(ctx, userID)
	if err != nil {
		return 0, err
	}

	updated := 0
	err = s.update(func(txn *badger.Txn) error {
		for _, n := range notifications {
			if n.Read {
				continue
			}
			n.Read = true
			if err := setJSON(txn, prefixNotif+userID+":"+n.ID, n); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
