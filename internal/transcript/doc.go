// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the in-memory message list for the active
// conversation.
//
// The Store is the single source of truth for what the user sees. It keeps
// messages in insertion order, supports append-only content growth for
// streaming replies, and guards against stale writers with generation
// tokens: bulk replacement bumps the generation, and tagged mutations from
// an older generation are rejected instead of corrupting the new view.
//
// The Store never talks to the network. Reconciliation decisions (what to
// append, what to roll back) belong to internal/conversation.
package transcript
