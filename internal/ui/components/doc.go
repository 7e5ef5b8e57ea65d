// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides small reusable pieces of the parley TUI:
// code block highlighting, the status bar, and the error banner.
package components
