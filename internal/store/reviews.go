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

// CreateReview stores a new review, assigning ID and timestamps.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	now := s.now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	return s.update(func(txn *badger.Txn) error {
		if err := setJSON(txn, prefixReview+review.ID, review); err != nil {
			return err
		}
		movKey := prefixReviewMov + review.MovieID + ":" + review.ID
		if err := txn.Set([]byte(movKey), []byte(review.ID)); err != nil {
			return err
		}
		authKey := prefixReviewAuth + review.AuthorID + ":" + review.ID
		return txn.Set([]byte(authKey), []byte(review.ID))
	})
}

// GetReview loads a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixReview+id, &review)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview replaces the stored review and bumps UpdatedAt.
// The caller is responsible for ownership checks.
func (s *Store) UpdateReview(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = s.now().UTC()
	return s.update(func(txn *badger.Txn) error {
		var existing models.Review
		if err := getJSON(txn, prefixReview+review.ID, &existing); err != nil {
			return err
		}
		review.CreatedAt = existing.CreatedAt
		return setJSON(txn, prefixReview+review.ID, review)
	})
}

// DeleteReview removes a review and its index entries.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	return s.update(func(txn *badger.Txn) error {
		var review models.Review
		if err := getJSON(txn, prefixReview+id, &review); err != nil {
			return err
		}
		if err := txn.Delete([]byte(prefixReview + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(prefixReviewMov + review.MovieID + ":" + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixReviewAuth + review.AuthorID + ":" + id))
	})
}

// ListReviewsByMovie returns all reviews for a movie.
func (s *Store) ListReviewsByMovie(ctx context.Context, movieID string) ([]*models.Review, error) {
	return s.listReviewsByIndex(prefixReviewMov + movieID + ":")
}

// ListReviewsByAuthor returns all reviews written by a user.
func (s *Store) ListReviewsByAuthor(ctx context.Context, authorID string) ([]*models.Review, error) {
	return s.listReviewsByIndex(prefixReviewAuth + authorID + ":")
}

func (s *Store) listReviewsByIndex(prefix string) ([]*models.Review, error) {
	var ids []string
	if err := s.scanPrefix(prefix, func(val []byte) error {
		ids = append(ids, string(val))
		return nil
	}); err != nil {
		return nil, err
	}

	reviews := make([]*models.Review, 0, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var review models.Review
			if err := getJSON(txn, prefixReview+id, &review); err != nil {
				if err == ErrNotFound {
					continue // index entry outlived the review
				}
				return err
			}
			reviews = append(reviews, &review)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddToWatchlist records a movie on the user's watchlist. Idempotent.
func (s *Store) AddToWatchlist(ctx context.Context, entry *models.WatchlistEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now().UTC()
	}
	return s.update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixWatchlist+entry.UserID+":"+entry.MovieID, entry)
	})
}

// RemoveFromWatchlist deletes a watchlist entry.
// Returns ErrNotFound when the movie is not on the list.
func (s *Store) RemoveFromWatchlist(ctx context.Context, userID, movieID string) error {
	key := prefixWatchlist + userID + ":" + movieID
	return s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return txn.Delete([]byte(key))
	})
}

// ListWatchlist returns the user's watchlist entries.
func (s *Store) ListWatchlist(ctx context.Context, userID string) ([]*models.WatchlistEntry, error) {
	var entries []*models.WatchlistEntry
	err := s.scanPrefix(prefixWatchlist+userID+":", func(val []byte) error {
		var entry models.WatchlistEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		entries = append(entries, &entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
