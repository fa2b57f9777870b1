// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport defines the engine's boundary to the host's
// send/receive and upload collaborators.
//
// The engine consumes the Transport and UploadSink interfaces and never
// bakes in retry policy; HTTPTransport is a ready-made implementation
// that owns retry/backoff and client-side rate limiting. Errors crossing
// the boundary are categorized so the state machine can distinguish
// network, auth, and validation failures without inspecting transport
// internals.
package transport
