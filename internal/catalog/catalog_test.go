// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

type fakeSource struct {
	models []model.ModelInfo
	err    error
}

func (f *fakeSource) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return f.models, f.err
}

func TestValidatePermissiveBeforeLoad(t *testing.T) {
	c := New(&fakeSource{})
	if err := c.Validate("anything-goes"); err != nil {
		t.Errorf("unloaded catalog should accept any id, got %v", err)
	}
	if err := c.Validate(""); err == nil {
		t.Error("empty id must always be rejected")
	}
}

func TestValidateStrictAfterLoad(t *testing.T) {
	src := &fakeSource{models: []model.ModelInfo{
		{ID: "claude-sonnet", Name: "Claude Sonnet", Provider: "anthropic"},
		{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai"},
	}}
	c := New(src)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := c.Validate("claude-sonnet"); err != nil {
		t.Errorf("known id rejected: %v", err)
	}
	err := c.Validate("unknown-model")
	if !api.IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestLoadFailureKeepsCache(t *testing.T) {
	src := &fakeSource{models: []model.ModelInfo{{ID: "m1"}}}
	c := New(src)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.err = errors.New("service down")
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := c.Get("m1"); !ok {
		t.Error("cache lost after failed reload")
	}
	if !c.Loaded() {
		t.Error("Loaded flag lost after failed reload")
	}
}

func TestDefault(t *testing.T) {
	c := New(&fakeSource{})
	if c.Default() != "" {
		t.Error("empty catalog should have no default")
	}

	src := &fakeSource{models: []model.ModelInfo{{ID: "first"}, {ID: "second"}}}
	c = New(src)
	c.Load(context.Background())
	if got := c.Default(); got != "first" {
		t.Errorf("Default = %q, want %q", got, "first")
	}
}
