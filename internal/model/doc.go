// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core data types shared across the client:
// messages, conversations, model catalog entries, plugins, and the page
// envelopes the dialog service wraps list responses in.
//
// Types here are plain data with small behavior helpers. Network concerns
// live in internal/api; transcript bookkeeping lives in internal/transcript.
package model
