// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest generates reply suggestions from the customer's
// current draft text.
//
// Generation is debounced: a computation fires only after the draft has
// been stable for the quiet period, and every keystroke inside the
// window resets the timer, so a typing burst produces exactly one
// computation. The computation itself (Compute) is a pure function of
// the draft, which keeps it trivially testable without timers.
package suggest
