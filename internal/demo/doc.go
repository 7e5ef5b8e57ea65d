// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package demo is an in-memory stand-in for the dialog service.
//
// It exists for offline evaluation and UI work and is only ever selected
// through the explicit demo.enabled config flag; the real client never
// falls back to it silently. Replies are canned, streamed in small chunks
// with multi-byte characters on purpose, so the whole decode and
// reconciliation path is exercised without a network.
package demo
