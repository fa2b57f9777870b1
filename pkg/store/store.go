// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/supportwidget/pkg/model"
	"github.com/jeranaias/supportwidget/pkg/transport"
)

// DefaultSnapshotLimit is how many tail messages a snapshot keeps.
const DefaultSnapshotLimit = 50

// ShrinkLimit is the smaller slice used for the single retry after a
// failed snapshot write.
const ShrinkLimit = 10

// DefaultKey is the storage key for the session snapshot.
const DefaultKey = "supportwidget.messages"

// =============================================================================
// SNAPSHOT FORMAT
// =============================================================================

// snapshot is the externally durable form of the message log: plain
// data only, a prefix-truncated suffix of the in-memory log.
type snapshot struct {
	Version  int              `json:"version"`
	SavedAt  time.Time        `json:"saved_at"`
	Messages []*model.Message `json:"messages"`
}

// snapshotVersion guards against future format changes; unknown
// versions are discarded like malformed data.
const snapshotVersion = 1

// =============================================================================
// MESSAGE STORE
// =============================================================================

// MessageStore is the ordered message log for the active session.
//
// Append order is insertion order and is never re-sorted. All methods
// are safe for concurrent use. Persistence never blocks appends: Save
// serializes under the lock but writes to the adapter outside it, and
// SaveAsync coalesces bursts into a single in-flight write.
type MessageStore struct {
	mu       sync.Mutex
	messages []*model.Message
	loaded   bool

	// Async write coalescing
	saving bool
	dirty  bool

	storage       transport.Storage
	key           string
	snapshotLimit int
	log           *zap.Logger
}

// Options configures a MessageStore.
type Options struct {
	// Storage is the durable key-value sink. Required.
	Storage transport.Storage

	// Key is the snapshot key. Default: DefaultKey.
	Key string

	// SnapshotLimit bounds persisted messages (0 = unlimited).
	// Default: DefaultSnapshotLimit.
	SnapshotLimit int

	// Logger for persistence failures. Default: no-op.
	Logger *zap.Logger
}

// NewMessageStore creates a message store over the given adapter.
func NewMessageStore(opts Options) *MessageStore {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.SnapshotLimit == 0 {
		opts.SnapshotLimit = DefaultSnapshotLimit
	}
	if opts.SnapshotLimit < 0 {
		opts.SnapshotLimit = 0 // explicit negative means unlimited
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &MessageStore{
		storage:       opts.Storage,
		key:           opts.Key,
		snapshotLimit: opts.SnapshotLimit,
		log:           opts.Logger,
	}
}

// =============================================================================
// LOG OPERATIONS
// =============================================================================

// Append inserts a message at the tail of the log.
func (s *MessageStore) Append(msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Reset replaces the log with a fetched conversation's messages.
// Used when the widget opens a different conversation; the snapshot key
// keeps tracking whatever log is current.
func (s *MessageStore) Reset(messages []*model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.messages = append([]*model.Message(nil), messages...)
}

// UpdateStatus advances a customer message's delivery status. Backward
// or repeated transitions are ignored, so status never regresses.
// Returns true if the status changed.
func (s *MessageStore) UpdateStatus(id string, status model.DeliveryStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ID != id {
			continue
		}
		if !msg.DeliveryStatus.CanAdvanceTo(status) {
			s.log.Debug("ignoring non-forward status transition",
				zap.String("message_id", id),
				zap.String("from", string(msg.DeliveryStatus)),
				zap.String("to", string(status)))
			return false
		}
		msg.DeliveryStatus = status
		return true
	}
	return false
}

// All returns the messages in insertion order. The returned slice is a
// copy; the messages themselves are shared and must be treated as
// read-only by callers.
func (s *MessageStore) All() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the log.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Get returns a message by ID, or nil.
func (s *MessageStore) Get(id string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// LoadSnapshot restores the log from the storage adapter. Called once
// at session start; subsequent calls are no-ops returning the current
// log. Malformed or missing stored data is treated as empty history and
// never fails initialization.
func (s *MessageStore) LoadSnapshot() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		out := make([]*model.Message, len(s.messages))
		copy(out, s.messages)
		return out
	}
	s.loaded = true

	raw, ok, err := s.storage.Get(s.key)
	if err != nil || !ok {
		if err != nil {
			s.log.Warn("snapshot read failed, starting empty", zap.Error(err))
		}
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.Version != snapshotVersion {
		s.log.Warn("discarding malformed snapshot", zap.Error(err))
		return nil
	}

	s.messages = snap.Messages
	out := make([]*model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Save persists the tail-most SnapshotLimit messages. On write failure
// it retries once with the last ShrinkLimit messages; a second failure
// is logged and returned (adapters report capacity exhaustion as
// transport.ErrQuotaExceeded). The in-memory log remains authoritative
// either way.
func (s *MessageStore) Save() error {
	full := s.encodeTail(s.snapshotLimit)

	if err := s.storage.Set(s.key, full); err != nil {
		s.log.Warn("snapshot write failed, retrying with smaller slice",
			zap.Int("limit", ShrinkLimit), zap.Error(err))

		small := s.encodeTail(ShrinkLimit)
		if err := s.storage.Set(s.key, small); err != nil {
			s.log.Warn("snapshot retry failed, history is in-memory only", zap.Error(err))
			return err
		}
	}
	return nil
}

// SaveAsync persists fire-and-forget. A write in progress does not
// block appends or further SaveAsync calls; bursts coalesce into one
// trailing write.
func (s *MessageStore) SaveAsync() {
	s.mu.Lock()
	if s.saving {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.saving = true
	s.mu.Unlock()

	go func() {
		for {
			// Errors are already logged by Save; durability is allowed to lag.
			_ = s.Save()

			s.mu.Lock()
			if !s.dirty {
				s.saving = false
				s.mu.Unlock()
				return
			}
			s.dirty = false
			s.mu.Unlock()
		}
	}()
}

// encodeTail serializes the last limit messages (0 = all) under the lock.
func (s *MessageStore) encodeTail(limit int) string {
	s.mu.Lock()
	msgs := s.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	tail := make([]*model.Message, len(msgs))
	for i, m := range msgs {
		tail[i] = m.Clone()
	}
	s.mu.Unlock()

	data, err := json.Marshal(snapshot{
		Version:  snapshotVersion,
		SavedAt:  time.Now(),
		Messages: tail,
	})
	if err != nil {
		// Messages are plain data; marshalling them cannot fail in practice.
		s.log.Error("snapshot encode failed", zap.Error(err))
		return "{}"
	}
	return string(data)
}
