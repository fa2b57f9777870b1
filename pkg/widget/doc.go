// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget is the engine's top-level state machine.
//
// It composes the message store, transport, attachment pipeline, voice
// controller, and suggestion engine into the conversation lifecycle a
// host application drives: opening the widget, browsing and loading
// conversations, sending messages with delivery tracking and manual
// retry, department gating, and a fixed-interval poller for agent
// messages. Host integration events (message sent, file uploaded,
// article viewed, news read) fire exactly once per user action and
// never for synthesized system messages.
package widget
