// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"strings"
	"sync"
	"time"
	"unicode"
)

// DefaultQuietPeriod is how long a draft must be stable before
// suggestions are computed.
const DefaultQuietPeriod = 500 * time.Millisecond

// DefaultMinDraftLen suppresses suggestions for very short input.
const DefaultMinDraftLen = 3

// =============================================================================
// SUGGESTION ENGINE
// =============================================================================

// Engine debounces draft changes and emits suggestion sets to
// subscribers. Safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	timer  *time.Timer
	latest []string
	closed bool

	quiet   time.Duration
	minLen  int
	subs    []func(suggestions []string)
}

// Options configures an Engine.
type Options struct {
	// QuietPeriod is the debounce window. Default: DefaultQuietPeriod.
	QuietPeriod time.Duration

	// MinDraftLen is the minimum draft length (in runes) that produces
	// suggestions. Default: DefaultMinDraftLen.
	MinDraftLen int
}

// NewEngine creates a suggestion engine.
func NewEngine(opts Options) *Engine {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	if opts.MinDraftLen <= 0 {
		opts.MinDraftLen = DefaultMinDraftLen
	}
	return &Engine{quiet: opts.QuietPeriod, minLen: opts.MinDraftLen}
}

// Subscribe registers a callback invoked with each emitted suggestion
// set. Callbacks run outside the engine lock.
func (e *Engine) Subscribe(fn func(suggestions []string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// OnDraftChange records a keystroke. Short drafts emit an empty set
// immediately and cancel any pending computation; otherwise the quiet
// timer restarts and exactly one computation fires once typing pauses.
func (e *Engine) OnDraftChange(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	if len([]rune(strings.TrimSpace(text))) < e.minLen {
		e.latest = nil
		subs := e.subscribers()
		e.mu.Unlock()
		for _, fn := range subs {
			fn(nil)
		}
		return
	}

	e.timer = time.AfterFunc(e.quiet, func() {
		e.emit(text)
	})
	e.mu.Unlock()
}

// Latest returns the most recently emitted suggestion set.
func (e *Engine) Latest() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.latest))
	copy(out, e.latest)
	return out
}

// Close cancels any pending computation. Subsequent draft changes are
// ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// emit computes and publishes suggestions for a stabilized draft.
func (e *Engine) emit(text string) {
	suggestions := Compute(text)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.latest = suggestions
	subs := e.subscribers()
	e.mu.Unlock()

	for _, fn := range subs {
		fn(suggestions)
	}
}

// subscribers copies the callback list; callers hold the lock.
func (e *Engine) subscribers() []func([]string) {
	subs := make([]func([]string), len(e.subs))
	copy(subs, e.subs)
	return subs
}

// =============================================================================
// SUGGESTION COMPUTATION
// =============================================================================

// topicSuggestions maps draft keywords to canned reply suggestions.
// Order within each entry is significant and stable.
var topicSuggestions = []struct {
	keyword     string
	suggestions []string
}{
	{"refund", []string{
		"I would like to request a refund for my last order.",
		"What is the status of my refund?",
	}},
	{"password", []string{
		"I need help resetting my password.",
		"I am locked out of my account.",
	}},
	{"order", []string{
		"Where is my order?",
		"I want to change my delivery address.",
	}},
	{"cancel", []string{
		"I would like to cancel my subscription.",
		"Can I cancel my order before it ships?",
	}},
	{"invoice", []string{
		"Could you send me a copy of my invoice?",
		"My invoice amount looks wrong.",
	}},
}

// Compute derives suggestions deterministically from the draft: same
// input, same output. Keyword matches come first in table order, then a
// completion of the draft itself. At most three suggestions are
// returned.
func Compute(draft string) []string {
	trimmed := strings.TrimSpace(draft)
	if trimmed == "" {
		return nil
	}
	lower := strings.ToLower(trimmed)

	var out []string
	for _, topic := range topicSuggestions {
		if strings.Contains(lower, topic.keyword) {
			out = append(out, topic.suggestions...)
		}
	}

	// Draft completion: offer the draft as a polite full sentence.
	runes := []rune(trimmed)
	completion := string(unicode.ToUpper(runes[0])) + string(runes[1:])
	if !strings.HasSuffix(completion, "?") && !strings.HasSuffix(completion, ".") {
		completion += "?"
	}
	out = append(out, "Could you help me with: "+completion)

	if len(out) > 3 {
		out = out[:3]
	}
	return dedupe(out)
}

// dedupe removes duplicate suggestions preserving first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
