// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the widget engine: crash-safe
// file writes for snapshot adapters and rune-aware string handling for
// previews and export filenames.
package util
