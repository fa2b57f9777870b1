// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/supportwidget/internal/util"
)

// =============================================================================
// ORIGIN TYPE
// =============================================================================

// Origin identifies who authored a message.
type Origin string

const (
	OriginCustomer Origin = "customer"
	OriginAgent    Origin = "agent"
	OriginSystem   Origin = "system"
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	return string(o)
}

// DisplayName returns a human-readable name for the origin.
func (o Origin) DisplayName() string {
	switch o {
	case OriginCustomer:
		return "You"
	case OriginAgent:
		return "Agent"
	case OriginSystem:
		return "System"
	default:
		return string(o)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind discriminates message variants.
type Kind string

const (
	KindText       Kind = "text"
	KindAttachment Kind = "attachment"
	KindAudio      Kind = "audio"
	KindSystem     Kind = "system"
)

// =============================================================================
// DELIVERY STATUS
// =============================================================================

// DeliveryStatus tracks how far a customer message has travelled.
// The zero value StatusNone is used for agent and system messages,
// which carry no delivery state.
type DeliveryStatus string

const (
	StatusNone      DeliveryStatus = ""
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// rank orders statuses for monotonicity checks.
func (s DeliveryStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// CanAdvanceTo reports whether moving to next is a forward transition.
// Equal or backward transitions are rejected, so delivery status can
// never regress.
func (s DeliveryStatus) CanAdvanceTo(next DeliveryStatus) bool {
	return next.rank() > s.rank()
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in the widget conversation.
//
// Every field except DeliveryStatus is immutable after construction.
// DeliveryStatus is advanced exclusively by the message store when the
// transport acknowledges delivery or read receipts.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`

	// Content. Text is required for every kind; attachment-only
	// messages carry a synthesized caption such as "Attached: file.png".
	Text string `json:"text"`

	// Delivery tracking (customer messages only)
	DeliveryStatus DeliveryStatus `json:"delivery_status,omitempty"`

	// Variant payloads. At most one of each; which one is set is
	// determined by Kind.
	Attachment *Attachment `json:"attachment,omitempty"`
	Audio      *Attachment `json:"audio,omitempty"`

	// Elapsed recording duration for audio messages.
	AudioSeconds int `json:"audio_seconds,omitempty"`
}

// NewTextMessage creates a plain text message.
// Customer messages start their delivery lifecycle at StatusSent.
func NewTextMessage(origin Origin, text string) *Message {
	msg := &Message{
		ID:        generateMessageID(),
		Kind:      KindText,
		Origin:    origin,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if origin == OriginCustomer {
		msg.DeliveryStatus = StatusSent
	}
	return msg
}

// NewAttachmentMessage creates a customer message carrying a completed
// file attachment. The caption is synthesized from the file name.
func NewAttachmentMessage(att *Attachment) *Message {
	return &Message{
		ID:             generateMessageID(),
		Kind:           KindAttachment,
		Origin:         OriginCustomer,
		Text:           "Attached: " + att.Name,
		CreatedAt:      time.Now(),
		DeliveryStatus: StatusSent,
		Attachment:     att,
	}
}

// NewAudioMessage creates a customer message carrying a finished voice
// clip and its recorded duration in seconds.
func NewAudioMessage(clip *Attachment, seconds int) *Message {
	return &Message{
		ID:             generateMessageID(),
		Kind:           KindAudio,
		Origin:         OriginCustomer,
		Text:           "Voice message",
		CreatedAt:      time.Now(),
		DeliveryStatus: StatusSent,
		Audio:          clip,
		AudioSeconds:   seconds,
	}
}

// NewSystemMessage creates an internally synthesized system message.
// System messages never fire host events and carry no delivery state.
func NewSystemMessage(text string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Kind:      KindSystem,
		Origin:    OriginSystem,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Text, maxLen)
}

// IsCustomer reports whether the message was authored by the customer.
func (m *Message) IsCustomer() bool {
	return m.Origin == OriginCustomer
}

// HasMedia reports whether the message carries a file or audio payload.
func (m *Message) HasMedia() bool {
	return m.Attachment != nil || m.Audio != nil
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	cp := *m
	if m.Attachment != nil {
		att := *m.Attachment
		cp.Attachment = &att
	}
	if m.Audio != nil {
		clip := *m.Audio
		cp.Audio = &clip
	}
	return &cp
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
