// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the durable, size-bounded message log for the
// active widget session.
//
// The in-memory log is authoritative; persistence through a
// transport.Storage adapter is best-effort. A failed snapshot write is
// retried once with a smaller slice and then logged, never surfaced as
// a session failure. The package also ships the adapter implementations:
// in-memory (tests), JSON file with atomic writes, SQLite, and Pebble.
package store
