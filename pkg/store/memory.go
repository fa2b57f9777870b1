// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"sync"

	"github.com/jeranaias/supportwidget/pkg/transport"
)

// =============================================================================
// MEMORY ADAPTER
// =============================================================================

// MemoryAdapter is a transport.Storage backed by a map. It is the
// default when no durable sink is configured and the workhorse for
// tests.
type MemoryAdapter struct {
	mu   sync.Mutex
	data map[string]string

	// CapacityBytes limits total stored bytes (0 = unlimited). Writes
	// beyond capacity fail with transport.ErrQuotaExceeded, which lets
	// tests exercise the store's shrink-and-retry path.
	CapacityBytes int
}

// NewMemoryAdapter creates an unbounded in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string]string)}
}

// NewBoundedMemoryAdapter creates a capacity-limited in-memory adapter.
func NewBoundedMemoryAdapter(capacityBytes int) *MemoryAdapter {
	return &MemoryAdapter{
		data:          make(map[string]string),
		CapacityBytes: capacityBytes,
	}
}

// Get returns the stored value and whether the key exists.
func (a *MemoryAdapter) Get(key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.data[key]
	return v, ok, nil
}

// Set stores a value, enforcing the capacity bound if one is set.
func (a *MemoryAdapter) Set(key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.CapacityBytes > 0 {
		total := len(value)
		for k, v := range a.data {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > a.CapacityBytes {
			return fmt.Errorf("set %q (%d bytes): %w", key, len(value), transport.ErrQuotaExceeded)
		}
	}

	a.data[key] = value
	return nil
}

// Delete removes a key.
func (a *MemoryAdapter) Delete(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, key)
	return nil
}

// Close is a no-op for the memory adapter.
func (a *MemoryAdapter) Close() error {
	return nil
}
