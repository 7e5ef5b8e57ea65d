// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the color palette and lipgloss styles shared by
// the TUI and the CLI output helpers.
package styles
