// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the dialog service.
//
// All requests go through one Client: conversations, message history,
// reply streaming, the model catalog, and the plugin marketplace. The
// client attaches the bearer credential, rate-limits outbound requests,
// retries idempotent calls on transient failures, and maps service
// responses onto the shared error taxonomy (AuthError, TransportError,
// ValidationError).
//
// Reply streaming returns the raw response body; decoding belongs to
// internal/stream and reconciliation to internal/conversation.
package api
