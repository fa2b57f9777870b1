// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the support widget
// engine.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation that clamps out-of-range values instead of
// failing. A fsnotify-based watcher supports hot reload of the config
// file with debounced change notification.
package config
