// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete widget engine configuration.
type Config struct {
	// Widget behavior
	Widget WidgetConfig `toml:"widget"`

	// Local persistence
	Storage StorageConfig `toml:"storage"`

	// Attachment pipeline
	Attachments AttachmentConfig `toml:"attachments"`

	// Suggestion engine
	Suggestions SuggestionConfig `toml:"suggestions"`

	// Transport
	Transport TransportConfig `toml:"transport"`
}

// WidgetConfig contains widget-level behavior settings.
type WidgetConfig struct {
	// RequireDepartment gates sending until a department is chosen.
	RequireDepartment bool `toml:"require_department"`
	// Departments offered when RequireDepartment is set.
	Departments []string `toml:"departments"`
	// PollIntervalSecs is the agent-message poll interval.
	// Valid range 1-120; out-of-range values are clamped.
	PollIntervalSecs int `toml:"poll_interval_secs"`
	// ListLimit bounds the conversation list fetch.
	ListLimit int `toml:"list_limit"`
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	// Backend selects the storage adapter: "memory", "file", "sqlite",
	// or "pebble".
	Backend string `toml:"backend"`
	// Path is the adapter's on-disk location (file directory, sqlite
	// database file, or pebble directory). Overridable via
	// SUPPORTWIDGET_STORAGE_PATH.
	Path string `toml:"path"`
	// Key is the snapshot key within the adapter.
	Key string `toml:"key"`
	// SnapshotLimit bounds the persisted message tail. 0 = unlimited.
	SnapshotLimit int `toml:"snapshot_limit"`
}

// AttachmentConfig contains file upload settings.
type AttachmentConfig struct {
	// MaxSizeBytes is the per-file size bound.
	MaxSizeBytes int64 `toml:"max_size_bytes"`
	// AllowedTypes is the MIME allow-list. Empty = engine default.
	AllowedTypes []string `toml:"allowed_types"`
}

// SuggestionConfig contains AI-assist settings.
type SuggestionConfig struct {
	// Enabled toggles draft suggestions.
	Enabled bool `toml:"enabled"`
	// QuietPeriodMS is the debounce window in milliseconds.
	// Valid range 100-5000; out-of-range values are clamped.
	QuietPeriodMS int `toml:"quiet_period_ms"`
	// MinDraftLen is the minimum draft length that produces suggestions.
	MinDraftLen int `toml:"min_draft_len"`
}

// TransportConfig contains backend connection settings.
type TransportConfig struct {
	// BaseURL is the widget API endpoint.
	BaseURL string `toml:"base_url"`
	// APIKey authenticates the widget installation. Overridable via
	// SUPPORTWIDGET_API_KEY.
	APIKey string `toml:"api_key"`
	// TimeoutSecs is the per-request timeout.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerSecond caps the outbound request rate. 0 = unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Widget: WidgetConfig{
			RequireDepartment: false,
			Departments:       nil,
			PollIntervalSecs:  5,
			ListLimit:         5,
		},
		Storage: StorageConfig{
			Backend:       "memory",
			Path:          "",
			Key:           "supportwidget.messages",
			SnapshotLimit: 50,
		},
		Attachments: AttachmentConfig{
			MaxSizeBytes: 10 << 20,
			AllowedTypes: nil,
		},
		Suggestions: SuggestionConfig{
			Enabled:       true,
			QuietPeriodMS: 500,
			MinDraftLen:   3,
		},
		Transport: TransportConfig{
			BaseURL:           "",
			APIKey:            "",
			TimeoutSecs:       30,
			RequestsPerSecond: 0,
		},
	}
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads a TOML config file, layers it over the defaults, applies
// environment overrides, and validates the result. A missing file is
// not an error; the defaults (plus env overrides) are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.Validate()
	return cfg, nil
}

// ApplyEnvOverrides applies SUPPORTWIDGET_* environment variables over
// the loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SUPPORTWIDGET_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SUPPORTWIDGET_API_KEY"); v != "" {
		c.Transport.APIKey = v
	}
	if v := os.Getenv("SUPPORTWIDGET_BASE_URL"); v != "" {
		c.Transport.BaseURL = v
	}
	if v := os.Getenv("SUPPORTWIDGET_SNAPSHOT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.SnapshotLimit = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

const (
	minPollIntervalSecs = 1
	maxPollIntervalSecs = 120

	minQuietPeriodMS = 100
	maxQuietPeriodMS = 5000
)

// Validate clamps out-of-range values to their nearest valid bound.
// The engine prefers a degraded-but-running widget over a refused one,
// so validation never fails.
func (c *Config) Validate() {
	if c.Widget.PollIntervalSecs < minPollIntervalSecs {
		c.Widget.PollIntervalSecs = minPollIntervalSecs
	}
	if c.Widget.PollIntervalSecs > maxPollIntervalSecs {
		c.Widget.PollIntervalSecs = maxPollIntervalSecs
	}
	if c.Widget.ListLimit < 0 {
		c.Widget.ListLimit = 0
	}

	if c.Storage.SnapshotLimit < 0 {
		c.Storage.SnapshotLimit = 0
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "file", "sqlite", "pebble":
		c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	default:
		c.Storage.Backend = "memory"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = Default().Storage.Key
	}

	if c.Attachments.MaxSizeBytes <= 0 {
		c.Attachments.MaxSizeBytes = Default().Attachments.MaxSizeBytes
	}

	if c.Suggestions.QuietPeriodMS < minQuietPeriodMS {
		c.Suggestions.QuietPeriodMS = minQuietPeriodMS
	}
	if c.Suggestions.QuietPeriodMS > maxQuietPeriodMS {
		c.Suggestions.QuietPeriodMS = maxQuietPeriodMS
	}
	if c.Suggestions.MinDraftLen < 1 {
		c.Suggestions.MinDraftLen = 1
	}

	if c.Transport.TimeoutSecs <= 0 {
		c.Transport.TimeoutSecs = Default().Transport.TimeoutSecs
	}
	if c.Transport.RequestsPerSecond < 0 {
		c.Transport.RequestsPerSecond = 0
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration as TOML.
func Save(cfg *Config, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
