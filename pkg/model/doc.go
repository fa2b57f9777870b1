// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for widget conversations,
// messages, and attachments.
//
// A Message is immutable once created except for its DeliveryStatus,
// which only ever advances (sent -> delivered -> read). Messages carry a
// Kind discriminant so that each variant's required fields are enforced
// by its constructor rather than by optional-field conventions:
//
//	msg := model.NewTextMessage(model.OriginCustomer, "Hello")
//	att := model.NewAttachmentMessage(fileAttachment)
//
// Attachments belong to exactly one message and never outlive it.
package model
