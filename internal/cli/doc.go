// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the parley command line surface: the chat REPL,
// model and plugin management, login, and config inspection. The TUI lives
// in internal/ui; everything here writes plain styled text to stdout and
// degrades to uncolored output when piped.
package cli
