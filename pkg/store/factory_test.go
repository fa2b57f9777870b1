// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"path/filepath"
	"testing"

	"github.com/jeranaias/supportwidget/pkg/config"
)

func TestNewAdapter_SelectsBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"default", config.StorageConfig{}},
		{"memory", config.StorageConfig{Backend: "memory"}},
		{"file", config.StorageConfig{Backend: "file", Path: t.TempDir()}},
		{"sqlite", config.StorageConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "widget.db")}},
		{"pebble", config.StorageConfig{Backend: "pebble", Path: filepath.Join(t.TempDir(), "pebble")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(tt.cfg, nil)
			if err != nil {
				t.Fatalf("NewAdapter failed: %v", err)
			}
			defer adapter.Close()

			// The adapter must be immediately usable.
			if err := adapter.Set("k", "v"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			v, ok, err := adapter.Get("k")
			if err != nil || !ok || v != "v" {
				t.Errorf("Get = (%q, %v, %v)", v, ok, err)
			}
		})
	}
}

func TestNewAdapter_Errors(t *testing.T) {
	if _, err := NewAdapter(config.StorageConfig{Backend: "redis"}, nil); err == nil {
		t.Error("unknown backend must error")
	}
	for _, backend := range []string{"file", "sqlite", "pebble"} {
		if _, err := NewAdapter(config.StorageConfig{Backend: backend}, nil); err == nil {
			t.Errorf("backend %q without a path must error", backend)
		}
	}
}

func TestNewFromConfig_AppliesKeyAndLimit(t *testing.T) {
	cfg := config.StorageConfig{
		Backend:       "file",
		Path:          t.TempDir(),
		Key:           "acme.widget.log",
		SnapshotLimit: 7,
	}

	s, err := NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if s.key != "acme.widget.log" {
		t.Errorf("key = %q", s.key)
	}
	if s.snapshotLimit != 7 {
		t.Errorf("snapshotLimit = %d, want 7", s.snapshotLimit)
	}
}

func TestNewFromConfig_ZeroLimitMeansUnlimited(t *testing.T) {
	s, err := NewFromConfig(config.StorageConfig{Backend: "memory"}, nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if s.snapshotLimit != 0 {
		t.Errorf("snapshotLimit = %d, want 0 (unlimited)", s.snapshotLimit)
	}
}
