// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth stores and supplies the bearer credential.
//
// The token lives in a 0600 file under the config directory, or in the
// PARLEY_TOKEN environment variable, which wins when set. How the token
// is obtained in the first place is between the user and the service;
// the client only carries it.
package auth
