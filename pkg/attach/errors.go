// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import "fmt"

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// Reason classifies why a file was rejected.
type Reason string

const (
	ReasonSizeExceeded Reason = "size_exceeded"
	ReasonTypeRejected Reason = "type_rejected"
)

// ValidationError is returned synchronously by Select when a file fails
// validation. Use errors.Is against ErrSizeExceeded / ErrTypeRejected.
type ValidationError struct {
	Reason  Reason
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("attachment rejected (%s): %s", e.Reason, e.Message)
}

// Is matches any *ValidationError with the same reason.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// Sentinel values for errors.Is checks.
var (
	ErrSizeExceeded = &ValidationError{Reason: ReasonSizeExceeded, Message: "file too large"}
	ErrTypeRejected = &ValidationError{Reason: ReasonTypeRejected, Message: "file type not allowed"}
)
