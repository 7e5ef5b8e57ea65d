// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plugins wraps the marketplace endpoints with client-side
// conveniences: sort validation, a cached installed set, and local
// re-sorting when the service ignores the requested order.
//
// Plugins are service-side records only; nothing here downloads or
// executes plugin code.
package plugins
