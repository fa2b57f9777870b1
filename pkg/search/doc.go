// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search provides the in-memory substring index over the
// session's message log, with cyclic cursor navigation over the last
// query's results.
//
// The index rebuilds from the full store on every query. The log is
// bounded to at most a few hundred messages per session, so the O(n)
// rebuild is cheap; revisit this if the bound is ever relaxed.
package search
