// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/google/uuid"
)

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is a file or voice clip bound to exactly one message.
//
// Lifecycle: created at 0% on file selection, progresses via upload
// ticks, reaches 100% and is linked to the message that references it.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`

	// SourceURL is the local preview location (object URL, temp file).
	SourceURL string `json:"source_url,omitempty"`

	// RemoteURL is the durable location returned by the upload sink.
	// Empty until the upload completes.
	RemoteURL string `json:"remote_url,omitempty"`

	// UploadProgress is a monotonic counter from 0 to 100.
	UploadProgress int `json:"upload_progress"`
}

// NewAttachment creates an attachment record at 0% progress.
func NewAttachment(name, mimeType string, sizeBytes int64, sourceURL string) *Attachment {
	return &Attachment{
		ID:        "att_" + uuid.NewString(),
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: sizeBytes,
		SourceURL: sourceURL,
	}
}

// SetProgress advances the upload progress. Values below the current
// progress are ignored so progress never decreases; values above 100
// are clamped.
func (a *Attachment) SetProgress(pct int) {
	if pct > 100 {
		pct = 100
	}
	if pct > a.UploadProgress {
		a.UploadProgress = pct
	}
}

// IsComplete reports whether the upload has finished.
func (a *Attachment) IsComplete() bool {
	return a.UploadProgress >= 100
}
