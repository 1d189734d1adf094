// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/cineshare/cineshare/internal/models"
)

// CreateUser stores a new user, assigning an ID and creation time.
// Returns ErrConflict when the email or username is already taken.
// Email and username matching is case-insensitive.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	emailKey := prefixUserEmail + strings.ToLower(user.Email)
	nameKey := prefixUserName + strings.ToLower(user.Username)

	return s.update(func(txn *badger.Txn) error {
		for _, key := range []string{emailKey, nameKey} {
			taken, err := exists(txn, key)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict
			}
		}

		if err := setJSON(txn, prefixUser+user.ID, user); err != nil {
			return err
		}
		if err := txn.Set([]byte(emailKey), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(nameKey), []byte(user.ID))
	})
}

// GetUser loads a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixUser+id, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail resolves an email to a user.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserByIndex(prefixUserEmail + strings.ToLower(email))
}

// GetUserByUsername resolves a username to a user.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserByIndex(prefixUserName + strings.ToLower(username))
}

func (s *Store) getUserByIndex(indexKey string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrNotFound
			}
			return err
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, prefixUser+id, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces a stored user's mutable profile fields.
// Email and username are immutable once created.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.update(func(txn *badger.Txn) error {
		var existing models.User
		if err := getJSON(txn, prefixUser+user.ID, &existing); err != nil {
			return err
		}
		if existing.Email != user.Email || existing.Username != user.Username {
			return fmt.Errorf("%w: email and username are immutable", ErrConflict)
		}
		return setJSON(txn, prefixUser+user.ID, user)
	})
}
