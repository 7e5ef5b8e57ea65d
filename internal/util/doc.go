// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the client: UTF-8 and
// display-width safe string truncation, and crash-safe file writing.
package util
