// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plugins

import (
	"context"
	"testing"
	"time"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

type fakeService struct {
	plugins   []model.Plugin
	installed []model.Plugin
	gotQuery  string
	gotSort   model.PluginSort
}

func (f *fakeService) ListPlugins(ctx context.Context, query string, sort model.PluginSort) ([]model.Plugin, error) {
	f.gotQuery, f.gotSort = query, sort
	out := make([]model.Plugin, len(f.plugins))
	copy(out, f.plugins)
	return out, nil
}

func (f *fakeService) InstalledPlugins(ctx context.Context) ([]model.Plugin, error) {
	return f.installed, nil
}

func (f *fakeService) Plugin(ctx context.Context, id string) (*model.Plugin, error) {
	for _, p := range f.plugins {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, &api.TransportError{Op: "GET plugin", Status: 404, Err: api.ErrNotFound}
}

func (f *fakeService) InstallPlugin(ctx context.Context, id string) (*model.Plugin, error) {
	p, err := f.Plugin(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Installed = true
	return p, nil
}

func (f *fakeService) UninstallPlugin(ctx context.Context, id string) error {
	_, err := f.Plugin(ctx, id)
	return err
}

func samplePlugins() []model.Plugin {
	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now()
	return []model.Plugin{
		{ID: "a", Name: "Zebra", Downloads: 5, CreatedAt: older},
		{ID: "b", Name: "alpha", Downloads: 100, CreatedAt: newer},
		{ID: "c", Name: "Mango", Downloads: 40, CreatedAt: older},
	}
}

func TestSearchSortModes(t *testing.T) {
	tests := []struct {
		mode model.PluginSort
		want []string // expected id order
	}{
		{model.PluginSortPopular, []string{"b", "c", "a"}},
		{model.PluginSortDownloads, []string{"b", "c", "a"}},
		{model.PluginSortName, []string{"b", "c", "a"}}, // alpha, Mango, Zebra
		{model.PluginSortNewest, []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			m := NewManager(&fakeService{plugins: samplePlugins()})
			out, err := m.Search(context.Background(), "", tt.mode)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			for i, want := range tt.want {
				if out[i].ID != want {
					t.Errorf("pos %d = %q, want %q", i, out[i].ID, want)
				}
			}
		})
	}
}

func TestSearchDefaultsToPopular(t *testing.T) {
	svc := &fakeService{plugins: samplePlugins()}
	m := NewManager(svc)
	if _, err := m.Search(context.Background(), "  query  ", ""); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if svc.gotSort != model.PluginSortPopular {
		t.Errorf("sort sent = %q", svc.gotSort)
	}
	if svc.gotQuery != "query" {
		t.Errorf("query sent = %q", svc.gotQuery)
	}
}

func TestSearchRejectsUnknownSort(t *testing.T) {
	m := NewManager(&fakeService{})
	_, err := m.Search(context.Background(), "", model.PluginSort("rating"))
	if !api.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestInstallStateOverlaysSearchResults(t *testing.T) {
	svc := &fakeService{plugins: samplePlugins()}
	m := NewManager(svc)

	if _, err := m.Install(context.Background(), "c"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	out, err := m.Search(context.Background(), "", model.PluginSortName)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, p := range out {
		if p.ID == "c" && !p.Installed {
			t.Error("installed plugin not overlaid in search results")
		}
	}

	if err := m.Uninstall(context.Background(), "c"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	out, _ = m.Search(context.Background(), "", model.PluginSortName)
	for _, p := range out {
		if p.ID == "c" && p.Installed {
			t.Error("uninstalled plugin still marked installed")
		}
	}
}

func TestInstalledRefreshesCache(t *testing.T) {
	svc := &fakeService{
		plugins:   samplePlugins(),
		installed: []model.Plugin{{ID: "a", Name: "Zebra", Installed: true}},
	}
	m := NewManager(svc)

	got, err := m.Installed(context.Background())
	if err != nil {
		t.Fatalf("Installed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("installed = %+v", got)
	}

	out, _ := m.Search(context.Background(), "", model.PluginSortName)
	for _, p := range out {
		if p.ID == "a" && !p.Installed {
			t.Error("cache from Installed not applied to search")
		}
	}
}

func TestEmptyIDValidation(t *testing.T) {
	m := NewManager(&fakeService{})
	if _, err := m.Get(context.Background(), "  "); !api.IsValidation(err) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := m.Install(context.Background(), ""); !api.IsValidation(err) {
		t.Errorf("Install err = %v", err)
	}
	if err := m.Uninstall(context.Background(), ""); !api.IsValidation(err) {
		t.Errorf("Uninstall err = %v", err)
	}
}
