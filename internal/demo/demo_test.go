// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package demo

import (
	"context"
	"testing"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/transcript"
)

// The demo backend must satisfy the controller's Backend contract.
var _ conversation.Backend = (*Backend)(nil)

func TestDemoEndToEndSend(t *testing.T) {
	b := New()
	ctx := context.Background()

	conv, err := b.CreateConversation(ctx, api.CreateConversationRequest{Model: "demo-small"})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	store := transcript.New()
	c := conversation.New(b, store, *conv)

	if err := c.Send(ctx, "Hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content == "" {
		t.Errorf("assistant = %+v", msgs[1])
	}

	// The canned reply contains multi-byte characters; if the chunked
	// stream split one, the decoder would have failed above. Reload and
	// compare against the recorded history.
	if err := c.LoadTranscript(ctx); err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	reloaded := store.Messages()
	if len(reloaded) != 2 {
		t.Fatalf("reloaded len = %d", len(reloaded))
	}
	if reloaded[1].Content != msgs[1].Content {
		t.Errorf("streamed %q != stored %q", msgs[1].Content, reloaded[1].Content)
	}
}

func TestDemoModelSwitch(t *testing.T) {
	b := New()
	ctx := context.Background()
	conv, _ := b.CreateConversation(ctx, api.CreateConversationRequest{Model: "demo-small"})
	c := conversation.New(b, transcript.New(), *conv)

	if err := c.SwitchModel(ctx, "demo-large"); err != nil {
		t.Fatalf("SwitchModel: %v", err)
	}
	if c.Conversation().Model != "demo-large" {
		t.Errorf("model = %q", c.Conversation().Model)
	}

	err := c.SwitchModel(ctx, "no-such-model")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if c.Conversation().Model != "demo-large" {
		t.Errorf("model changed on failed switch: %q", c.Conversation().Model)
	}
}

// The generic update endpoint enforces the catalog the same way the
// dedicated model endpoint does, so the switch fallback path cannot
// smuggle in an unknown model.
func TestDemoUpdateConversationRejectsUnknownModel(t *testing.T) {
	b := New()
	ctx := context.Background()
	conv, _ := b.CreateConversation(ctx, api.CreateConversationRequest{Model: "demo-small"})

	bad := "no-such-model"
	_, err := b.UpdateConversation(ctx, conv.ID, model.ConversationUpdate{Model: &bad})
	if !api.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	got, _ := b.Conversation(ctx, conv.ID)
	if got.Model != "demo-small" {
		t.Errorf("model = %q, want unchanged demo-small", got.Model)
	}

	// Title-only updates still work.
	title := "renamed"
	out, err := b.UpdateConversation(ctx, conv.ID, model.ConversationUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateConversation: %v", err)
	}
	if out.Title != "renamed" {
		t.Errorf("title = %q", out.Title)
	}
}

func TestDemoPluginLifecycle(t *testing.T) {
	b := New()
	ctx := context.Background()

	all, err := b.ListPlugins(ctx, "", model.PluginSortPopular)
	if err != nil {
		t.Fatalf("ListPlugins: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("plugins = %d", len(all))
	}
	// Popular sort puts higher downloads first.
	if all[0].Downloads < all[1].Downloads {
		t.Error("popular sort out of order")
	}

	p, err := b.InstallPlugin(ctx, "pl-translate")
	if err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	if !p.Installed {
		t.Error("not marked installed")
	}

	installed, _ := b.InstalledPlugins(ctx)
	if len(installed) != 1 || installed[0].ID != "pl-translate" {
		t.Errorf("installed = %+v", installed)
	}

	if err := b.UninstallPlugin(ctx, "pl-translate"); err != nil {
		t.Fatalf("UninstallPlugin: %v", err)
	}
	installed, _ = b.InstalledPlugins(ctx)
	if len(installed) != 0 {
		t.Errorf("installed after uninstall = %+v", installed)
	}
}

func TestDemoSearchFiltersByQuery(t *testing.T) {
	b := New()
	out, err := b.ListPlugins(context.Background(), "summar", model.PluginSortName)
	if err != nil {
		t.Fatalf("ListPlugins: %v", err)
	}
	if len(out) != 1 || out[0].Name != "summarizer" {
		t.Errorf("out = %+v", out)
	}
}
