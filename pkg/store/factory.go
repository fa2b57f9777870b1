// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/supportwidget/pkg/config"
	"github.com/jeranaias/supportwidget/pkg/transport"
)

// =============================================================================
// ADAPTER FACTORY
// =============================================================================

// NewAdapter builds the storage adapter a configuration selects. The
// disk-backed backends require a path; config validation normalizes the
// backend name, so an unknown one here is a programming error.
func NewAdapter(cfg config.StorageConfig, log *zap.Logger) (transport.Storage, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryAdapter(), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage backend %q requires a path", cfg.Backend)
		}
		return NewFileAdapter(cfg.Path)
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage backend %q requires a path", cfg.Backend)
		}
		return NewSQLiteAdapter(cfg.Path)
	case "pebble":
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage backend %q requires a path", cfg.Backend)
		}
		return NewPebbleAdapter(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewFromConfig builds a message store over the adapter the
// configuration selects, applying its snapshot key and limit. A config
// limit of 0 means unlimited.
func NewFromConfig(cfg config.StorageConfig, log *zap.Logger) (*MessageStore, error) {
	adapter, err := NewAdapter(cfg, log)
	if err != nil {
		return nil, err
	}

	limit := cfg.SnapshotLimit
	if limit == 0 {
		limit = -1 // store options treat 0 as "use default"
	}

	return NewMessageStore(Options{
		Storage:       adapter,
		Key:           cfg.Key,
		SnapshotLimit: limit,
		Logger:        log,
	}), nil
}
