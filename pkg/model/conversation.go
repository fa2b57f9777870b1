// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION SUMMARY
// =============================================================================

// ConversationSummary is read-only metadata about a prior conversation,
// used for the conversation list. It is not a full message log; opening
// a conversation fetches the log through the transport.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Preview      string    `json:"preview"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Unread       int       `json:"unread,omitempty"`
}

// =============================================================================
// CONVERSATION SNAPSHOT
// =============================================================================

// ConversationSnapshot is the transport's fetch result for a single
// conversation: identity plus the full ordered message log.
type ConversationSnapshot struct {
	ID         string     `json:"id"`
	Department string     `json:"department,omitempty"`
	Messages   []*Message `json:"messages"`
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewConversationID creates a unique conversation ID.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// DeriveTitle builds a conversation title from the first customer
// message, truncated rune-safely. Falls back to a default for logs with
// no customer messages.
func DeriveTitle(messages []*Message) string {
	for _, msg := range messages {
		if msg.Origin == OriginCustomer && msg.Text != "" {
			return msg.Preview(50)
		}
	}
	return "New conversation"
}
