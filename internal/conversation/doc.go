// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation orchestrates sends, reply streaming, transcript
// reloads, and model switching for the active conversation.
//
// The Controller owns every reconciliation decision: when the optimistic
// user message is appended and when it is rolled back, when the assistant
// placeholder appears, how streamed chunks land in the transcript, and
// what happens on each failure class. The transcript store and the stream
// decoder stay mechanism; policy lives here.
package conversation
