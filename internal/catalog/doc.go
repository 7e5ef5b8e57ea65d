// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog caches the service's model catalog and validates model
// ids before they are sent over the wire.
package catalog
