// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cineshare/cineshare/internal/models"
)

// seqKey returns the big-endian padded message key for a conversation.
// Big-endian encoding keeps lexicographic key order equal to sequence
// order, so a prefix scan yields messages in delivery order.
func seqKey(conversationID string, seq uint64) []byte {
	key := make([]byte, 0, len(prefixMessage)+len(conversationID)+1+8)
	key = append(key, prefixMessage...)
	key = append(key, conversationID...)
	key = append(key, ':')
	return binary.BigEndian.AppendUint64(key, seq)
}

// AppendMessage persists a direct message, creating the conversation on
// first contact and assigning the next per-conversation sequence number.
// The assigned Seq and ID are written back into msg.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.SenderID == msg.RecipientID {
		return fmt.Errorf("%w: cannot message yourself", ErrConflict)
	}
	msg.ConversationID = models.ConversationID(msg.SenderID, msg.RecipientID)
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	now := s.now().UTC()
	msg.CreatedAt = now

	return s.update(func(txn *badger.Txn) error {
		// Ensure the conversation exists and bump its last-message time.
		var conv models.Conversation
		err := getJSON(txn, prefixConv+msg.ConversationID, &conv)
		switch {
		case errors.Is(err, ErrNotFound):
			conv = models.Conversation{
				ID:           msg.ConversationID,
				Participants: []string{msg.SenderID, msg.RecipientID},
				CreatedAt:    now,
			}
			for _, userID := range conv.Participants {
				memberKey := prefixConvUser + userID + ":" + conv.ID
				if err := txn.Set([]byte(memberKey), []byte(conv.ID)); err != nil {
					return err
				}
			}
		case err != nil:
			return err
		}
		conv.LastMessage = now
		if err := setJSON(txn, prefixConv+conv.ID, &conv); err != nil {
			return err
		}

		// Next sequence number. The read-modify-write is safe under
		// badger's optimistic concurrency: conflicting appends retry.
		seq, err := s.nextSeq(txn, msg.ConversationID)
		if err != nil {
			return err
		}
		msg.Seq = seq

		return setJSON(txn, string(seqKey(msg.ConversationID, seq)), msg)
	})
}

func (s *Store) nextSeq(txn *badger.Txn, conversationID string) (uint64, error) {
	key := []byte(prefixConvSeq + conversationID)

	var seq uint64
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		seq = 0
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence counter for %s", conversationID)
			}
			seq = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}

	seq++
	return seq, txn.Set(key, binary.BigEndian.AppendUint64(nil, seq))
}

// GetConversation loads conversation metadata.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixConv+id, &conv)
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns every conversation the user participates in.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	var ids []string
	if err := s.scanPrefix(prefixConvUser+userID+":", func(val []byte) error {
		ids = append(ids, string(val))
		return nil
	}); err != nil {
		return nil, err
	}

	convs := make([]*models.Conversation, 0, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var conv models.Conversation
			if err := getJSON(txn, prefixConv+id, &conv); err != nil {
				return err
			}
			convs = append(convs, &conv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// ListMessages returns messages for a conversation with Seq > afterSeq,
// in sequence order, up to limit (0 means no limit).
func (s *Store) ListMessages(ctx context.Context, conversationID string, afterSeq uint64, limit int) ([]*models.Message, error) {
	if afterSeq == math.MaxUint64 {
		return nil, nil
	}

	var messages []*models.Message
	prefix := []byte(prefixMessage + conversationID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Key order equals sequence order, so the iterator can seek
		// straight past afterSeq and stop as soon as limit is reached.
		for it.Seek(seqKey(conversationID, afterSeq+1)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) >= limit {
				break
			}
			var msg models.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			messages = append(messages, &msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
