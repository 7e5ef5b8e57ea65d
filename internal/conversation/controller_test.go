// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/stream"
	"github.com/jeranaias/parley-tui/internal/transcript"
)

// fakeBackend implements Backend with overridable function fields.
type fakeBackend struct {
	createFn      func(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error)
	getFn         func(ctx context.Context, id string) (*model.Conversation, error)
	listFn        func(ctx context.Context, id string, page, size int) (*model.MessagePage, error)
	streamFn      func(ctx context.Context, id, content string) (io.ReadCloser, error)
	updateFn      func(ctx context.Context, id string, upd model.ConversationUpdate) (*model.Conversation, error)
	updateModelFn func(ctx context.Context, id, modelID string) (*model.Conversation, error)
	resetFn       func(ctx context.Context, id string) error

	mu    sync.Mutex
	calls []string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error) {
	f.record("create")
	if f.createFn == nil {
		return nil, errors.New("unexpected CreateConversation")
	}
	return f.createFn(ctx, req)
}

func (f *fakeBackend) Conversation(ctx context.Context, id string) (*model.Conversation, error) {
	f.record("get")
	if f.getFn == nil {
		return nil, errors.New("unexpected Conversation")
	}
	return f.getFn(ctx, id)
}

func (f *fakeBackend) ListMessages(ctx context.Context, id string, page, size int) (*model.MessagePage, error) {
	f.record(fmt.Sprintf("list:%d", page))
	if f.listFn == nil {
		return &model.MessagePage{Page: page, Size: size}, nil
	}
	return f.listFn(ctx, id, page, size)
}

func (f *fakeBackend) StreamMessage(ctx context.Context, id, content string) (io.ReadCloser, error) {
	f.record("stream")
	if f.streamFn == nil {
		return nil, errors.New("unexpected StreamMessage")
	}
	return f.streamFn(ctx, id, content)
}

func (f *fakeBackend) UpdateConversation(ctx context.Context, id string, upd model.ConversationUpdate) (*model.Conversation, error) {
	f.record("update")
	if f.updateFn == nil {
		return nil, errors.New("unexpected UpdateConversation")
	}
	return f.updateFn(ctx, id, upd)
}

func (f *fakeBackend) UpdateConversationModel(ctx context.Context, id, modelID string) (*model.Conversation, error) {
	f.record("update-model")
	if f.updateModelFn == nil {
		return nil, errors.New("unexpected UpdateConversationModel")
	}
	return f.updateModelFn(ctx, id, modelID)
}

func (f *fakeBackend) ResetConversation(ctx context.Context, id string) error {
	f.record("reset")
	if f.resetFn == nil {
		return errors.New("unexpected ResetConversation")
	}
	return f.resetFn(ctx, id)
}

// scriptedBody is a ReadCloser yielding one scripted step per Read call.
// A step is either bytes, an error, or a side effect to run mid-stream.
type bodyStep struct {
	data   []byte
	err    error
	effect func()
}

type scriptedBody struct {
	steps []bodyStep
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if len(b.steps) == 0 {
		return 0, io.EOF
	}
	step := b.steps[0]
	b.steps = b.steps[1:]
	if step.effect != nil {
		step.effect()
	}
	if step.err != nil {
		return 0, step.err
	}
	return copy(p, step.data), nil
}

func (b *scriptedBody) Close() error { return nil }

func textBody(chunks ...string) *scriptedBody {
	var steps []bodyStep
	for _, c := range chunks {
		steps = append(steps, bodyStep{data: []byte(c)})
	}
	return &scriptedBody{steps: steps}
}

func activeConv() model.Conversation {
	return model.Conversation{ID: "c1", Title: "t", Model: "claude-sonnet"}
}

// =============================================================================
// SEND
// =============================================================================

func TestSendStreamsReplyIntoTranscript(t *testing.T) {
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			if id != "c1" {
				t.Errorf("conversation id = %q", id)
			}
			if content != "Hello" {
				t.Errorf("content = %q", content)
			}
			return textBody("Hi ", "there", "!"), nil
		},
	}
	store := transcript.New()
	var states []State
	c := New(backend, store, activeConv(), WithHooks(Hooks{
		OnStateChange: func(s State) { states = append(states, s) },
	}))

	if err := c.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[0].Pending {
		t.Error("acknowledged user message still pending")
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "Hi there!" {
		t.Errorf("assistant message = %+v", msgs[1])
	}

	want := []State{StateSending, StateStreaming, StateSettledOK}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestSendRejectsEmptyText(t *testing.T) {
	backend := &fakeBackend{}
	store := transcript.New()
	c := New(backend, store, activeConv())

	err := c.Send(context.Background(), "   \n\t ")
	if !api.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if store.Len() != 0 {
		t.Error("store must stay untouched")
	}
	if len(backend.callLog()) != 0 {
		t.Errorf("backend called: %v", backend.callLog())
	}
}

func TestSendRejectsWithoutModel(t *testing.T) {
	c := New(&fakeBackend{}, transcript.New(), model.Conversation{ID: "c1"})
	err := c.Send(context.Background(), "hi")
	if !api.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSendDoubleSubmitRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			close(started)
			<-release
			return textBody("ok"), nil
		},
	}
	store := transcript.New()
	c := New(backend, store, activeConv())

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "first") }()
	<-started

	// Second submit while the first is in flight: rejected, no side effects.
	err := c.Send(context.Background(), "second")
	if !errors.Is(err, ErrSendInProgress) {
		t.Fatalf("err = %v, want ErrSendInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}

	msgs := store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want exactly one user + one assistant", len(msgs))
	}
	if msgs[0].Content != "first" {
		t.Errorf("user content = %q", msgs[0].Content)
	}
}

func TestSendPreAckFailureRollsBack(t *testing.T) {
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			return nil, &api.TransportError{Op: "POST /stream", Status: http.StatusInternalServerError}
		},
	}
	store := transcript.New()
	existing := model.Message{ID: "m1", Role: model.RoleUser, Content: "earlier"}
	store.Append(existing)
	c := New(backend, store, activeConv())

	err := c.Send(context.Background(), "Hello")
	if api.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("err = %v, want status 500", err)
	}

	// Store restored exactly: only the pre-existing message remains.
	msgs := store.Messages()
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("store after rollback = %+v", msgs)
	}
	if c.State() != StateSettledFailed {
		t.Errorf("state = %v", c.State())
	}
}

func TestSendMidStreamFailureKeepsPartial(t *testing.T) {
	netErr := errors.New("connection reset by peer")
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			return &scriptedBody{steps: []bodyStep{
				{data: []byte("The answer is")},
				{err: netErr},
			}}, nil
		},
	}
	store := transcript.New()
	c := New(backend, store, activeConv())

	err := c.Send(context.Background(), "Question?")
	if !api.IsTransport(err) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if !errors.Is(err, netErr) {
		t.Errorf("err should wrap the network failure, got %v", err)
	}

	msgs := store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	// The user message survives (the send was acknowledged) and the
	// partial reply is retained.
	if msgs[0].Content != "Question?" {
		t.Errorf("user content = %q", msgs[0].Content)
	}
	if msgs[1].Content != "The answer is" {
		t.Errorf("partial reply = %q", msgs[1].Content)
	}
}

func TestSendFailureBeforeFirstChunkRemovesPlaceholder(t *testing.T) {
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			return &scriptedBody{steps: []bodyStep{{err: errors.New("broken pipe")}}}, nil
		},
	}
	store := transcript.New()
	c := New(backend, store, activeConv())

	if err := c.Send(context.Background(), "Hello"); err == nil {
		t.Fatal("expected error")
	}

	msgs := store.Messages()
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1 (empty placeholder removed)", len(msgs))
	}
	if msgs[0].Role != model.RoleUser {
		t.Errorf("surviving message = %+v", msgs[0])
	}
}

func TestSendSurfacesDecodeError(t *testing.T) {
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			return &scriptedBody{steps: []bodyStep{
				{data: []byte("ok so far")},
				{data: []byte{0xFF, 0xFE}},
			}}, nil
		},
	}
	store := transcript.New()
	c := New(backend, store, activeConv())

	err := c.Send(context.Background(), "Hello")
	if !stream.IsDecodeError(err) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	// Valid prefix retained.
	msgs := store.Messages()
	if len(msgs) != 2 || msgs[1].Content != "ok so far" {
		t.Errorf("store = %+v", msgs)
	}
}

func TestSendStaleGenerationAbortsSilently(t *testing.T) {
	store := transcript.New()
	reloaded := []model.Message{{ID: "r1", Role: model.RoleUser, Content: "reloaded"}}
	backend := &fakeBackend{
		streamFn: func(ctx context.Context, id, content string) (io.ReadCloser, error) {
			return &scriptedBody{steps: []bodyStep{
				{data: []byte("part one ")},
				// Transcript replaced mid-stream (navigation/reload).
				{effect: func() { store.ReplaceAll(reloaded) }, data: []byte("x")},
				{data: []byte("part two")},
			}}, nil
		},
	}
	c := New(backend, store, activeConv())

	if err := c.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("superseded send should abort silently, got %v", err)
	}

	// Only the reloaded view remains; no tail leaked into it.
	msgs := store.Messages()
	if len(msgs) != 1 || msgs[0].ID != "r1" || msgs[0].Content != "reloaded" {
		t.Errorf("store = %+v", msgs)
	}
}

func TestSendOnNewConversationCreatesRecord(t *testing.T) {
	var created model.Conversation
	backend := &fakeBackend{
		createFn: func(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error) {
			if req.Model != "claude-sonnet" {
				t.Errorf("model = %q", req.Model)
			}
			if req.Title != "Hello world" {
				t.Errorf("title = %q", req.Title)
			}
			return &model.Conversation{ID: "fresh", Title: req.Title, Model: req.Model}, nil
		},
	}
	store := transcript.New()
	c := New(backend, store, model.Conversation{Model: "claude-sonnet"}, WithHooks(Hooks{
		OnConversationCreated: func(conv model.Conversation) { created = conv },
	}))

	if err := c.Send(context.Background(), "Hello world"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if created.ID != "fresh" {
		t.Errorf("hook conv = %+v", created)
	}
	if c.Conversation().ID != "fresh" {
		t.Errorf("controller conv = %+v", c.Conversation())
	}
	// Creation does not stream and appends nothing.
	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0", store.Len())
	}
	for _, call := range backend.callLog() {
		if call == "stream" {
			t.Error("creation must not open a stream")
		}
	}
}

// =============================================================================
// TRANSCRIPT RELOAD
// =============================================================================

func TestLoadTranscriptMergesPages(t *testing.T) {
	backend := &fakeBackend{
		listFn: func(ctx context.Context, id string, page, size int) (*model.MessagePage, error) {
			switch page {
			case 1:
				return &model.MessagePage{
					Items: []model.Message{{ID: "1", Content: "a"}, {ID: "2", Content: "b"}},
					Total: 3, Page: 1, Size: 2,
				}, nil
			case 2:
				return &model.MessagePage{
					Items: []model.Message{{ID: "3", Content: "c"}},
					Total: 3, Page: 2, Size: 2,
				}, nil
			}
			t.Fatalf("unexpected page %d", page)
			return nil, nil
		},
	}
	store := transcript.New()
	store.Append(model.Message{ID: "stale"})
	c := New(backend, store, activeConv(), WithPageSize(2))

	if err := c.LoadTranscript(context.Background()); err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	msgs := store.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, want := range []string{"1", "2", "3"} {
		if msgs[i].ID != want {
			t.Errorf("msgs[%d].ID = %q, want %q", i, msgs[i].ID, want)
		}
	}
}

func TestLoadTranscriptFailureLeavesStore(t *testing.T) {
	backend := &fakeBackend{
		listFn: func(ctx context.Context, id string, page, size int) (*model.MessagePage, error) {
			return nil, &api.TransportError{Op: "GET messages", Status: 502}
		},
	}
	store := transcript.New()
	store.Append(model.Message{ID: "keep", Content: "still here"})
	c := New(backend, store, activeConv())

	if err := c.LoadTranscript(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	msgs := store.Messages()
	if len(msgs) != 1 || msgs[0].ID != "keep" {
		t.Errorf("store = %+v", msgs)
	}
}
