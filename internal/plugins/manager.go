// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plugins

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// Service is the marketplace surface the manager sits on. *api.Client and
// the demo backend both satisfy it.
type Service interface {
	ListPlugins(ctx context.Context, query string, sort model.PluginSort) ([]model.Plugin, error)
	InstalledPlugins(ctx context.Context) ([]model.Plugin, error)
	Plugin(ctx context.Context, id string) (*model.Plugin, error)
	InstallPlugin(ctx context.Context, id string) (*model.Plugin, error)
	UninstallPlugin(ctx context.Context, id string) error
}

// Manager coordinates marketplace browsing and install state.
type Manager struct {
	svc Service

	mu        sync.Mutex
	installed map[string]bool // known install state, refreshed lazily
}

// NewManager builds a manager over the given service.
func NewManager(svc Service) *Manager {
	return &Manager{svc: svc, installed: map[string]bool{}}
}

// Search lists marketplace entries for query in the given order. An empty
// sort defaults to popularity; an unknown sort is rejected before any
// network call. Results are re-sorted locally so ordering holds even when
// the service ignores the parameter.
func (m *Manager) Search(ctx context.Context, query string, sortMode model.PluginSort) ([]model.Plugin, error) {
	if sortMode == "" {
		sortMode = model.PluginSortPopular
	}
	if !sortMode.Valid() {
		return nil, &api.ValidationError{Field: "sort", Reason: "unknown sort mode: " + string(sortMode)}
	}

	out, err := m.svc.ListPlugins(ctx, strings.TrimSpace(query), sortMode)
	if err != nil {
		return nil, err
	}
	sortPlugins(out, sortMode)

	m.mu.Lock()
	for i := range out {
		if installed, ok := m.installed[out[i].ID]; ok {
			out[i].Installed = installed
		}
	}
	m.mu.Unlock()
	return out, nil
}

// Installed returns the plugins installed for this account and refreshes
// the cached install state.
func (m *Manager) Installed(ctx context.Context) ([]model.Plugin, error) {
	out, err := m.svc.InstalledPlugins(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.installed = make(map[string]bool, len(out))
	for _, p := range out {
		m.installed[p.ID] = true
	}
	m.mu.Unlock()
	return out, nil
}

// Get fetches one marketplace entry.
func (m *Manager) Get(ctx context.Context, id string) (*model.Plugin, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &api.ValidationError{Field: "id", Reason: "plugin id is empty"}
	}
	return m.svc.Plugin(ctx, id)
}

// Install installs a plugin and records the new state.
func (m *Manager) Install(ctx context.Context, id string) (*model.Plugin, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &api.ValidationError{Field: "id", Reason: "plugin id is empty"}
	}
	p, err := m.svc.InstallPlugin(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.installed[p.ID] = true
	m.mu.Unlock()
	return p, nil
}

// Uninstall removes a plugin and records the new state.
func (m *Manager) Uninstall(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &api.ValidationError{Field: "id", Reason: "plugin id is empty"}
	}
	if err := m.svc.UninstallPlugin(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	m.installed[id] = false
	m.mu.Unlock()
	return nil
}

// sortPlugins orders entries the way the marketplace defines each mode.
// Popularity and downloads both order by download count; popularity is
// the service's blended ranking, so local re-sorting approximates it.
func sortPlugins(list []model.Plugin, mode model.PluginSort) {
	switch mode {
	case model.PluginSortName:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	case model.PluginSortNewest:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	case model.PluginSortPopular, model.PluginSortDownloads:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Downloads > list[j].Downloads
		})
	}
}
