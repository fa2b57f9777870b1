// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/base32"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/supportwidget/internal/util"
)

// =============================================================================
// FILE ADAPTER
// =============================================================================

// FileAdapter is a transport.Storage that keeps one file per key under
// a base directory. Writes are atomic with fsync, so a crash mid-write
// leaves either the previous snapshot or the new complete one.
type FileAdapter struct {
	// BaseDir is the directory holding the key files.
	BaseDir string
}

// NewFileAdapter creates a file adapter rooted at baseDir.
func NewFileAdapter(baseDir string) (*FileAdapter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &FileAdapter{BaseDir: baseDir}, nil
}

// Get returns the stored value and whether the key exists.
func (a *FileAdapter) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(a.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set stores a value atomically.
func (a *FileAdapter) Set(key, value string) error {
	return util.AtomicWriteFile(a.path(key), []byte(value), 0644)
}

// Delete removes a key. Deleting a missing key is not an error.
func (a *FileAdapter) Delete(key string) error {
	err := os.Remove(a.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op for the file adapter.
func (a *FileAdapter) Close() error {
	return nil
}

// path maps a key to a filename. Keys are base32-encoded so arbitrary
// key strings cannot escape the base directory.
func (a *FileAdapter) path(key string) string {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	name := strings.ToLower(enc.EncodeToString([]byte(key))) + ".json"
	return filepath.Join(a.BaseDir, name)
}
