// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice records voice messages through an injected capture
// device.
//
// The controller is a small state machine: idle, recording, and the
// transient finalizing/discarded states on the way back to idle. While
// recording, a one-second ticker drives the elapsed counter; the ticker
// is stopped and the device released exactly once on every exit path,
// whether the recording is finalized into an audio message or thrown
// away. Starting while already recording is a no-op, so two recordings
// can never hold the microphone at once.
package voice
