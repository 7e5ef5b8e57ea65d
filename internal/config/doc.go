// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages client configuration.
//
// TOML file with sensible defaults and environment variable overrides.
// Precedence, highest first:
//   - PARLEY_* environment variables
//   - ~/.parley/config.toml
//   - built-in defaults
//
// A watcher can hot-reload the file while the client runs.
package config
