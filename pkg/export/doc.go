// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export serializes the session's message log into interchange
// formats: plain text, JSON, HTML, and CSV.
//
// Every exporter is a pure, deterministic transformation of the log
// snapshot it is given; exporting never mutates the store. Fields that
// carry the target format's delimiter or markup characters are escaped
// (quote-doubling for CSV, entity escaping for HTML).
package export
