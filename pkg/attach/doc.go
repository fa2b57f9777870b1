// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach validates, uploads, and links file attachments into
// the message log.
//
// Selection validates synchronously (size bound, MIME allow-list) and
// creates no state on rejection. Accepted files upload in the
// background with monotonic progress; completion synthesizes exactly
// one customer message, appended in completion order relative to any
// concurrently typed messages. Cancelling a pending upload suppresses
// further progress and guarantees no message is ever created for it.
package attach
