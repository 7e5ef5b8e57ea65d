// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// PLUGIN MARKETPLACE
// =============================================================================

// Plugin is one marketplace entry. Installed reflects the state on the
// service, not anything on the local machine; the client never executes
// plugin code.
type Plugin struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Version     string    `json:"version"`
	Tags        []string  `json:"tags,omitempty"`
	Downloads   int       `json:"downloads"`
	Installed   bool      `json:"isInstalled"`
	Repository  string    `json:"repository,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PluginPage is one page of marketplace results.
type PluginPage struct {
	Items []Plugin `json:"items"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
	Size  int      `json:"size"`
}

// PluginSort names a marketplace ordering accepted by the list endpoint.
type PluginSort string

const (
	PluginSortPopular   PluginSort = "popular"
	PluginSortNewest    PluginSort = "newest"
	PluginSortName      PluginSort = "name"
	PluginSortDownloads PluginSort = "downloads"
)

// Valid reports whether the sort mode is one the service accepts.
func (s PluginSort) Valid() bool {
	switch s {
	case PluginSortPopular, PluginSortNewest, PluginSortName, PluginSortDownloads:
		return true
	}
	return false
}
