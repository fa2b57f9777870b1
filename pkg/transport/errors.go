// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

// Category classifies a transport failure for the state machine.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryTimeout    Category = "timeout"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
)

// =============================================================================
// TRANSPORT ERROR
// =============================================================================

// Error is a categorized transport failure.
// Use errors.As to recover the category from a wrapped chain.
type Error struct {
	Category Category
	Message  string
	Err      error // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport %s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("transport %s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Category == t.Category
}

// NewNetworkError creates a network-category transport error.
func NewNetworkError(message string, cause error) *Error {
	return &Error{Category: CategoryNetwork, Message: message, Err: cause}
}

// NewTimeoutError creates a timeout-category transport error.
func NewTimeoutError(message string, cause error) *Error {
	return &Error{Category: CategoryTimeout, Message: message, Err: cause}
}

// NewAuthError creates an auth-category transport error.
func NewAuthError(message string, cause error) *Error {
	return &Error{Category: CategoryAuth, Message: message, Err: cause}
}

// NewValidationError creates a validation-category transport error.
func NewValidationError(message string, cause error) *Error {
	return &Error{Category: CategoryValidation, Message: message, Err: cause}
}

// IsCategory reports whether err carries the given transport category.
func IsCategory(err error, cat Category) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Category == cat
	}
	return false
}

// =============================================================================
// STORAGE ERRORS
// =============================================================================

// ErrQuotaExceeded is returned by Storage.Set when the sink's capacity
// is exhausted. Persistence is best-effort: callers degrade to
// in-memory-only operation rather than failing the session.
var ErrQuotaExceeded = errors.New("storage quota exceeded")
