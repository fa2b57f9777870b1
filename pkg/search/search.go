// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"strings"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// NoResult is the sentinel returned by Next/Prev when the last query
// had no matches.
const NoResult = -1

// =============================================================================
// SOURCE INTERFACE
// =============================================================================

// Source supplies the message log to index. The message store satisfies
// this; the index holds only a derived, disposable view of it.
type Source interface {
	All() []*model.Message
}

// =============================================================================
// SEARCH INDEX
// =============================================================================

// Index finds messages by case-insensitive substring containment and
// tracks a cursor over the results of the most recent query.
type Index struct {
	source Source

	// Last query state
	results []int
	cursor  int
}

// NewIndex creates an index over the given message source.
func NewIndex(source Source) *Index {
	return &Index{source: source, cursor: NoResult}
}

// Query returns the indices of matching messages in log order and
// resets the cursor to the first match. The empty query matches
// nothing.
func (x *Index) Query(text string) []int {
	x.results = x.results[:0]
	x.cursor = NoResult

	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}

	for i, msg := range x.source.All() {
		if strings.Contains(strings.ToLower(msg.Text), needle) {
			x.results = append(x.results, i)
		}
	}

	if len(x.results) == 0 {
		return nil
	}
	x.cursor = 0

	out := make([]int, len(x.results))
	copy(out, x.results)
	return out
}

// Next advances the cursor cyclically and returns the message index it
// lands on. From the last result it wraps to the first. With no results
// it is a no-op returning NoResult.
func (x *Index) Next() int {
	if len(x.results) == 0 {
		return NoResult
	}
	x.cursor = (x.cursor + 1) % len(x.results)
	return x.results[x.cursor]
}

// Prev moves the cursor backwards cyclically. From the first result it
// wraps to the last. With no results it is a no-op returning NoResult.
func (x *Index) Prev() int {
	if len(x.results) == 0 {
		return NoResult
	}
	x.cursor = (x.cursor - 1 + len(x.results)) % len(x.results)
	return x.results[x.cursor]
}

// Current returns the message index under the cursor, or NoResult.
func (x *Index) Current() int {
	if x.cursor == NoResult || len(x.results) == 0 {
		return NoResult
	}
	return x.results[x.cursor]
}

// ResultCount returns the number of matches from the last query.
func (x *Index) ResultCount() int {
	return len(x.results)
}
