// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// TRANSPORT INTERFACE
// =============================================================================

// Transport is the boundary to the host's conversation backend.
//
// Implementations own their retry and backoff policy; the engine treats
// a returned error as final for the attempted operation.
type Transport interface {
	// SendMessage delivers a message to a conversation and returns the
	// server's acknowledged copy.
	SendMessage(ctx context.Context, conversationID string, msg *model.Message) (*model.Message, error)

	// FetchConversation retrieves the full message log for a conversation.
	FetchConversation(ctx context.Context, conversationID string) (*model.ConversationSnapshot, error)

	// ListConversations retrieves summaries of the user's conversations.
	ListConversations(ctx context.Context) ([]model.ConversationSummary, error)
}

// =============================================================================
// UPLOAD SINK INTERFACE
// =============================================================================

// BlobMeta describes the blob handed to an upload sink.
type BlobMeta struct {
	Name      string
	MimeType  string
	SizeBytes int64
}

// UploadSink accepts a blob and returns a durable URL.
//
// Implementations report progress through the callback with
// monotonically increasing percentages; the engine clamps regressions,
// so sinks need not deduplicate ticks.
type UploadSink interface {
	Upload(ctx context.Context, blob []byte, meta BlobMeta, progress func(pct int)) (string, error)
}

// =============================================================================
// STORAGE ADAPTER INTERFACE
// =============================================================================

// Storage is the durable key-value sink consumed by the message store.
// It is capacity-limited; Set may fail with a quota error and the engine
// degrades to in-memory-only operation.
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)

	// Set stores a value. Implementations should return ErrQuotaExceeded
	// (or an error wrapping it) when capacity is exhausted.
	Set(key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any underlying resources.
	Close() error
}
