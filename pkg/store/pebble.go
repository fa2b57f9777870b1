// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// =============================================================================
// PEBBLE ADAPTER
// =============================================================================

// PebbleAdapter is a transport.Storage backed by a Pebble key-value
// database. Suited to long-lived embedded hosts (kiosks, desktop
// shells) where snapshot history should survive process restarts
// without an external database.
type PebbleAdapter struct {
	db  *pebble.DB
	log *zap.Logger
}

// NewPebbleAdapter opens (or creates) a Pebble database at path.
func NewPebbleAdapter(path string, log *zap.Logger) (*PebbleAdapter, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		log.Error("pebble open failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	log.Info("pebble opened", zap.String("path", path))

	return &PebbleAdapter{db: db, log: log}, nil
}

// Get returns the stored value and whether the key exists.
func (a *PebbleAdapter) Get(key string) (string, bool, error) {
	value, closer, err := a.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	out := string(value)
	closer.Close()
	return out, true, nil
}

// Set stores a value with a synced write, so a snapshot survives a
// crash immediately after Save returns.
func (a *PebbleAdapter) Set(key, value string) error {
	return a.db.Set([]byte(key), []byte(value), pebble.Sync)
}

// Delete removes a key. Deleting a missing key is not an error.
func (a *PebbleAdapter) Delete(key string) error {
	return a.db.Delete([]byte(key), pebble.Sync)
}

// Close closes the underlying database.
func (a *PebbleAdapter) Close() error {
	if err := a.db.Close(); err != nil {
		return err
	}
	a.log.Info("pebble closed")
	return nil
}
