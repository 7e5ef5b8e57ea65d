// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package demo

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// streamChunkSize keeps demo replies arriving in small pieces, like a
// real reply stream.
const streamChunkSize = 7

// Backend is the in-memory service. It satisfies conversation.Backend,
// catalog.Source, and the plugin listing surface.
type Backend struct {
	mu      sync.Mutex
	seq     int
	convs   map[string]*record
	models  []model.ModelInfo
	plugins []model.Plugin
}

type record struct {
	conv model.Conversation
	msgs []model.Message
}

// New builds a demo backend with a small catalog and marketplace.
func New() *Backend {
	now := time.Now()
	return &Backend{
		convs: map[string]*record{},
		models: []model.ModelInfo{
			{ID: "demo-small", Name: "Demo Small", Provider: "demo", Description: "Fast canned replies"},
			{ID: "demo-large", Name: "Demo Large", Provider: "demo", Description: "Verbose canned replies"},
		},
		plugins: []model.Plugin{
			{ID: "pl-translate", Name: "translator", Description: "Translate replies", Author: "demo",
				Version: "1.2.0", Tags: []string{"language"}, Downloads: 420, CreatedAt: now, UpdatedAt: now},
			{ID: "pl-summarize", Name: "summarizer", Description: "Summarize long transcripts", Author: "demo",
				Version: "0.9.1", Tags: []string{"text"}, Downloads: 77, CreatedAt: now, UpdatedAt: now},
		},
	}
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (b *Backend) CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	conv := model.Conversation{
		ID:        b.nextID("conv"),
		Title:     req.Title,
		Model:     req.Model,
		Meta:      req.Meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if conv.Title == "" {
		conv.Title = "New conversation"
	}
	if conv.Model == "" {
		conv.Model = b.models[0].ID
	}
	b.convs[conv.ID] = &record{conv: conv}
	out := conv
	return &out, nil
}

func (b *Backend) Conversation(ctx context.Context, id string) (*model.Conversation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.convs[id]
	if !ok {
		return nil, &api.TransportError{Op: "GET /conversations/" + id, Status: 404, Err: api.ErrNotFound}
	}
	out := rec.conv
	return &out, nil
}

func (b *Backend) ListConversations(ctx context.Context, page, size int) (*model.ConversationPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]model.Conversation, 0, len(b.convs))
	for _, rec := range b.convs {
		items = append(items, rec.conv)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })
	return &model.ConversationPage{Items: items, Total: len(items), Page: 1, Size: len(items)}, nil
}

func (b *Backend) UpdateConversation(ctx context.Context, id string, upd model.ConversationUpdate) (*model.Conversation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.convs[id]
	if !ok {
		return nil, &api.TransportError{Op: "PUT /conversations/" + id, Status: 404, Err: api.ErrNotFound}
	}
	if upd.Model != nil {
		known := false
		for _, m := range b.models {
			if m.ID == *upd.Model {
				known = true
				break
			}
		}
		if !known {
			return nil, &api.ValidationError{Field: "model", Reason: "unknown model: " + *upd.Model}
		}
	}
	if upd.Title != nil {
		rec.conv.Title = *upd.Title
	}
	if upd.Model != nil {
		rec.conv.Model = *upd.Model
	}
	if upd.Meta != nil {
		rec.conv.Meta = upd.Meta
	}
	rec.conv.UpdatedAt = time.Now()
	out := rec.conv
	return &out, nil
}

func (b *Backend) UpdateConversationModel(ctx context.Context, id, modelID string) (*model.Conversation, error) {
	b.mu.Lock()
	known := false
	for _, m := range b.models {
		if m.ID == modelID {
			known = true
			break
		}
	}
	b.mu.Unlock()
	if !known {
		return nil, &api.ValidationError{Field: "model_id", Reason: "unknown model: " + modelID}
	}
	m := modelID
	return b.UpdateConversation(ctx, id, model.ConversationUpdate{Model: &m})
}

func (b *Backend) ResetConversation(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.convs[id]
	if !ok {
		return &api.TransportError{Op: "POST /conversations/" + id + "/reset", Status: 404, Err: api.ErrNotFound}
	}
	rec.conv.UpdatedAt = time.Now()
	return nil
}

// =============================================================================
// MESSAGES AND STREAMING
// =============================================================================

func (b *Backend) ListMessages(ctx context.Context, id string, page, size int) (*model.MessagePage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.convs[id]
	if !ok {
		return nil, &api.TransportError{Op: "GET messages", Status: 404, Err: api.ErrNotFound}
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	start := (page - 1) * size
	end := start + size
	total := len(rec.msgs)
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := make([]model.Message, end-start)
	copy(items, rec.msgs[start:end])
	return &model.MessagePage{Items: items, Total: total, Page: page, Size: size}, nil
}

// StreamMessage records the user message, appends a canned reply to the
// history, and returns the reply as a chunked stream.
func (b *Backend) StreamMessage(ctx context.Context, id, content string) (io.ReadCloser, error) {
	b.mu.Lock()
	rec, ok := b.convs[id]
	if !ok {
		b.mu.Unlock()
		return nil, &api.TransportError{Op: "POST stream", Status: 404, Err: api.ErrNotFound}
	}
	now := time.Now()
	rec.msgs = append(rec.msgs, model.Message{
		ID: b.nextID("msg"), ConversationID: id, Role: model.RoleUser, Content: content, CreatedAt: now,
	})
	reply := cannedReply(rec.conv.Model, content)
	rec.msgs = append(rec.msgs, model.Message{
		ID: b.nextID("msg"), ConversationID: id, Role: model.RoleAssistant, Content: reply, CreatedAt: now,
	})
	rec.conv.UpdatedAt = now
	b.mu.Unlock()

	return &chunkedReply{text: []byte(reply)}, nil
}

// cannedReply fabricates a deterministic reply. It deliberately mixes in
// multi-byte characters so chunked decoding gets real work.
func cannedReply(modelID, content string) string {
	base := fmt.Sprintf("Echo from %s: %q — received %d characters. ",
		modelID, strings.TrimSpace(content), len([]rune(content)))
	if modelID == "demo-large" {
		return base + "これはデモ応答です。 This demo reply is intentionally longer so streaming behavior, " +
			"scrollback, and partial-failure handling can be observed without a live service."
	}
	return base + "デモ応答。"
}

// chunkedReply streams a fixed byte slice a few bytes per Read, ignoring
// rune boundaries so the decoder has to stitch characters together.
type chunkedReply struct {
	text []byte
	off  int
}

func (r *chunkedReply) Read(p []byte) (int, error) {
	if r.off >= len(r.text) {
		return 0, io.EOF
	}
	end := r.off + streamChunkSize
	if end > len(r.text) {
		end = len(r.text)
	}
	n := copy(p, r.text[r.off:end])
	r.off += n
	return n, nil
}

func (r *chunkedReply) Close() error { return nil }

// =============================================================================
// CATALOG AND PLUGINS
// =============================================================================

func (b *Backend) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.ModelInfo, len(b.models))
	copy(out, b.models)
	return out, nil
}

func (b *Backend) ListPlugins(ctx context.Context, query string, sortMode model.PluginSort) ([]model.Plugin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := strings.ToLower(query)
	var out []model.Plugin
	for _, p := range b.plugins {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	switch sortMode {
	case model.PluginSortName:
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case model.PluginSortNewest:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].Downloads > out[j].Downloads })
	}
	return out, nil
}

func (b *Backend) InstalledPlugins(ctx context.Context) ([]model.Plugin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Plugin
	for _, p := range b.plugins {
		if p.Installed {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *Backend) Plugin(ctx context.Context, id string) (*model.Plugin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.plugins {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, &api.TransportError{Op: "GET /plugins/" + id, Status: 404, Err: api.ErrNotFound}
}

func (b *Backend) InstallPlugin(ctx context.Context, id string) (*model.Plugin, error) {
	return b.setInstalled(id, true)
}

func (b *Backend) UninstallPlugin(ctx context.Context, id string) error {
	_, err := b.setInstalled(id, false)
	return err
}

func (b *Backend) setInstalled(id string, installed bool) (*model.Plugin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.plugins {
		if b.plugins[i].ID == id {
			b.plugins[i].Installed = installed
			if installed {
				b.plugins[i].Downloads++
			}
			b.plugins[i].UpdatedAt = time.Now()
			out := b.plugins[i]
			return &out, nil
		}
	}
	return nil, &api.TransportError{Op: "plugin " + id, Status: 404, Err: api.ErrNotFound}
}
