// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package store is the durable layer behind the CineShare CRUD API:
// users, reviews, watchlists, follows, conversations, messages,
// notifications and reports, persisted in BadgerDB.
//
// Keys are namespaced by entity prefix, with secondary-index keys for
// lookups that would otherwise require a full scan (user email,
// review-by-movie, conversation membership). All values are JSON.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/cineshare/cineshare/internal/config"
)

// Store errors. Handlers translate these into 404 and 409 responses.
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// Key prefixes. A trailing separator keeps prefix scans exact:
// "user:" never matches "user_email:".
const (
	prefixUser       = "user:"
	prefixUserEmail  = "user_email:"
	prefixUserName   = "user_name:"
	prefixReview     = "review:"
	prefixReviewMov  = "review_movie:"
	prefixReviewAuth = "review_author:"
	prefixWatchlist  = "watchlist:"
	prefixFollow     = "follow:"
	prefixFollowerOf = "follower_of:"
	prefixConv       = "conv:"
	prefixConvUser   = "conv_user:"
	prefixConvSeq    = "conv_seq:"
	prefixMessage    = "msg:"
	prefixNotif      = "notif:"
	prefixReport     = "report:"
	prefixReportIdx  = "report_review:"
)

// updateRetries bounds optimistic-transaction retries on write conflict.
const updateRetries = 5

// Store wraps a BadgerDB instance.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) the store at the configured path.
func Open(cfg *config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// OpenInMemory opens an ephemeral store. Used by tests.
func OpenInMemory() (*Store, error) {
	return Open(&config.StoreConfig{InMemory: true})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying a bounded number
// of times on optimistic-concurrency conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < updateRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// setJSON marshals v and stores it under key.
func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// getJSON loads key into v, translating badger's not-found error.
func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// exists reports whether key is present.
func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scanPrefix iterates all values under prefix, calling fn with each raw
// value. Iteration order is lexicographic by key.
func (s *Store) scanPrefix(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				return fn(append([]byte(nil), val...))
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
