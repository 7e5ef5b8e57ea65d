// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"sync"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// Source lists the models available on the service. *api.Client satisfies
// this; tests substitute a fake.
type Source interface {
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
}

// Catalog is a cached view of the service's model list.
//
// Until the first successful Load the catalog is permissive: Validate
// accepts any non-empty id, so the client stays usable when the catalog
// endpoint is briefly unavailable. The service still enforces its own
// validation on every switch.
type Catalog struct {
	mu     sync.RWMutex
	source Source
	models []model.ModelInfo
	byID   map[string]model.ModelInfo
	loaded bool
}

// New builds an empty catalog over the given source.
func New(source Source) *Catalog {
	return &Catalog{source: source, byID: map[string]model.ModelInfo{}}
}

// Load refreshes the cache from the service. A failure leaves the previous
// cache intact.
func (c *Catalog) Load(ctx context.Context) error {
	models, err := c.source.ListModels(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]model.ModelInfo, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	c.mu.Lock()
	c.models = models
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether at least one Load has succeeded.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Models returns a snapshot of the cached catalog.
func (c *Catalog) Models() []model.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// Get returns the cached entry for id.
func (c *Catalog) Get(id string) (model.ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byID[id]
	return m, ok
}

// Validate rejects an empty id always, and an unknown id once the catalog
// has loaded.
func (c *Catalog) Validate(id string) error {
	if id == "" {
		return &api.ValidationError{Field: "model", Reason: "no model selected"}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loaded {
		if _, ok := c.byID[id]; !ok {
			return &api.ValidationError{Field: "model", Reason: "unknown model: " + id}
		}
	}
	return nil
}

// Default returns the first catalog entry's id, or "" when nothing is
// cached.
func (c *Catalog) Default() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.models) == 0 {
		return ""
	}
	return c.models[0].ID
}
