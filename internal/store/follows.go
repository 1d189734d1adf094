// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/cineshare/cineshare/internal/models"
)

// AddFollow records that follower follows followee.
// Returns ErrConflict when the relationship already exists.
func (s *Store) AddFollow(ctx context.Context, follow *models.Follow) error {
	if follow.CreatedAt.IsZero() {
		follow.CreatedAt = s.now().UTC()
	}

	key := prefixFollow + follow.FollowerID + ":" + follow.FolloweeID
	inverse := prefixFollowerOf + follow.FolloweeID + ":" + follow.FollowerID

	return s.update(func(txn *badger.Txn) error {
		already, err := exists(txn, key)
		if err != nil {
			return err
		}
		if already {
			return ErrConflict
		}
		if err := setJSON(txn, key, follow); err != nil {
			return err
		}
		return setJSON(txn, inverse, follow)
	})
}

// RemoveFollow deletes a follow relationship.
// Returns ErrNotFound when the relationship does not exist.
func (s *Store) RemoveFollow(ctx context.Context, followerID, followeeID string) error {
	key := prefixFollow + followerID + ":" + followeeID
	inverse := prefixFollowerOf + followeeID + ":" + followerID

	return s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		if err := txn.Delete([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(inverse))
	})
}

// IsFollowing reports whether follower follows followee.
func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var following bool
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := exists(txn, prefixFollow+followerID+":"+followeeID)
		following = found
		return err
	})
	return following, err
}

// ListFollowing returns everyone the user follows.
func (s *Store) ListFollowing(ctx context.Context, userID string) ([]*models.Follow, error) {
	return s.listFollows(prefixFollow + userID + ":")
}

// ListFollowers returns everyone following the user.
func (s *Store) ListFollowers(ctx context.Context, userID string) ([]*models.Follow, error) {
	return s.listFollows(prefixFollowerOf + userID + ":")
}

func (s *Store) listFollows(prefix string) ([]*models.Follow, error) {
	var follows []*models.Follow
	err := s.scanPrefix(prefix, func(val []byte) error {
		var follow models.Follow
		if err := json.Unmarshal(val, &follow); err != nil {
			return err
		}
		follows = append(follows, &follow)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return follows, nil
}
