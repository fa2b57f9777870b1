// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import "errors"

// =============================================================================
// ENGINE ERRORS
// =============================================================================

var (
	// ErrNotOpen is returned by operations that require an open widget.
	ErrNotOpen = errors.New("widget is not open")

	// ErrNoConversation is returned by Send when no conversation is
	// active.
	ErrNoConversation = errors.New("no active conversation")

	// ErrEmptyMessage is returned by Send for empty or whitespace-only
	// text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrDepartmentRequired is returned by Send while the session waits
	// for a department choice.
	ErrDepartmentRequired = errors.New("department must be selected before sending")

	// ErrDepartmentChosen is returned by SelectDepartment after a
	// department has already been chosen; the choice is one-way.
	ErrDepartmentChosen = errors.New("department already selected")

	// ErrUnknownDepartment is returned by SelectDepartment for a name
	// outside the configured department list.
	ErrUnknownDepartment = errors.New("unknown department")

	// ErrNotFailed is returned by Retry for a message that has no
	// pending failed dispatch.
	ErrNotFailed = errors.New("message has no failed dispatch to retry")

	// ErrNotConfigured is returned when a media operation runs without
	// its component wired (no upload pipeline, no recorder).
	ErrNotConfigured = errors.New("feature not configured")
)
