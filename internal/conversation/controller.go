// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/stream"
	"github.com/jeranaias/parley-tui/internal/transcript"
	"github.com/jeranaias/parley-tui/internal/util"
)

// defaultPageSize is the history page size used when reloading a
// transcript from the service.
const defaultPageSize = 50

// ErrSendInProgress rejects a second operation while one is in flight.
// The rejected call has no side effects.
var ErrSendInProgress = errors.New("an operation is already in progress")

// =============================================================================
// STATES
// =============================================================================

// State is the lifecycle of one send.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateSettledOK
	StateSettledFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSettledOK:
		return "settled"
	case StateSettledFailed:
		return "failed"
	}
	return "unknown"
}

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the slice of the service API the controller needs. It is
// implemented by *api.Client and by the demo backend.
type Backend interface {
	CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error)
	Conversation(ctx context.Context, id string) (*model.Conversation, error)
	ListMessages(ctx context.Context, id string, page, size int) (*model.MessagePage, error)
	StreamMessage(ctx context.Context, id, content string) (io.ReadCloser, error)
	UpdateConversation(ctx context.Context, id string, upd model.ConversationUpdate) (*model.Conversation, error)
	UpdateConversationModel(ctx context.Context, id, modelID string) (*model.Conversation, error)
	ResetConversation(ctx context.Context, id string) error
}

// Hooks are optional callbacks for UI integration. They run on the
// goroutine driving the operation; keep them fast.
type Hooks struct {
	// OnStateChange fires on every send-state transition.
	OnStateChange func(State)

	// OnConversationCreated fires when a send against the "new
	// conversation" marker created the record. The text is not sent in
	// the same call; resubmit against the created conversation.
	OnConversationCreated func(conv model.Conversation)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one conversation view.
type Controller struct {
	mu    sync.Mutex
	busy  bool
	state State
	conv  model.Conversation

	backend  Backend
	store    *transcript.Store
	hooks    Hooks
	pageSize int

	// validateModel is consulted before a send or switch; wired to the
	// catalog when one is available.
	validateModel func(id string) error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithHooks installs UI callbacks.
func WithHooks(h Hooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithPageSize sets the history page size for transcript reloads.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithModelValidator wires catalog validation into sends and switches.
func WithModelValidator(fn func(id string) error) Option {
	return func(c *Controller) { c.validateModel = fn }
}

// New builds a controller for conv backed by the given service and store.
func New(backend Backend, store *transcript.Store, conv model.Conversation, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		store:    store,
		conv:     conv,
		state:    StateIdle,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conversation returns a copy of the active conversation record.
func (c *Controller) Conversation() model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

// State returns the current send state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Store exposes the transcript store for observers.
func (c *Controller) Store() *transcript.Store { return c.store }

func (c *Controller) setConv(conv model.Conversation) {
	c.mu.Lock()
	c.conv = conv
	c.mu.Unlock()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	hook := c.hooks.OnStateChange
	c.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// claim marks the controller busy; a concurrent operation gets
// ErrSendInProgress with no side effects.
func (c *Controller) claim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrSendInProgress
	}
	c.busy = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// =============================================================================
// SEND
// =============================================================================

// Send submits user text and streams the assistant reply into the store.
// It blocks until the send settles; drive it from its own goroutine.
//
// Failure semantics:
//   - validation failures leave the store untouched;
//   - a failure before the service acknowledged the send rolls the
//     optimistic user message back;
//   - a failure after streaming began keeps the partial assistant content
//     and removes only an empty placeholder.
func (c *Controller) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &api.ValidationError{Field: "content", Reason: "message is empty"}
	}

	if err := c.claim(); err != nil {
		return err
	}
	defer c.release()

	conv := c.Conversation()

	// First send on the "new conversation" marker creates the record and
	// stops; nothing streams until the caller resubmits against the new id.
	if conv.IsNew() {
		return c.createConversation(ctx, conv, trimmed)
	}

	if conv.Model == "" {
		return &api.ValidationError{Field: "model", Reason: "no model selected"}
	}
	if c.validateModel != nil {
		if err := c.validateModel(conv.Model); err != nil {
			return err
		}
	}

	c.setState(StateSending)

	userMsg := model.NewUserMessage(conv.ID, trimmed)
	c.store.Append(userMsg)

	rc, err := c.backend.StreamMessage(ctx, conv.ID, trimmed)
	if err != nil {
		// Never acknowledged: the optimistic message must not survive.
		c.store.Remove(userMsg.ID)
		c.setState(StateSettledFailed)
		return err
	}
	defer rc.Close()

	// An open stream is the acknowledgment.
	c.store.SetAcknowledged(userMsg.ID)

	placeholder := model.NewAssistantPlaceholder(conv.ID)
	c.store.Append(placeholder)
	gen := c.store.Generation()

	c.setState(StateStreaming)

	dec := stream.NewDecoder(rc)
	streamed := false
	for {
		chunk, err := dec.Next(ctx)
		if err == io.EOF {
			c.store.SetAcknowledged(placeholder.ID)
			c.setState(StateSettledOK)
			return nil
		}
		if err != nil {
			if !streamed {
				// Nothing arrived; an empty placeholder is noise.
				c.store.RemoveAt(gen, placeholder.ID)
			}
			c.setState(StateSettledFailed)
			return classifyStreamFailure(err)
		}
		if !c.store.AppendContentAt(gen, placeholder.ID, chunk) {
			// The transcript moved on (reload, navigation). Drop the
			// tail quietly; this send no longer owns the view.
			c.setState(StateIdle)
			return nil
		}
		streamed = true
	}
}

// createConversation handles the new-conversation marker.
func (c *Controller) createConversation(ctx context.Context, conv model.Conversation, title string) error {
	c.setState(StateSending)
	created, err := c.backend.CreateConversation(ctx, api.CreateConversationRequest{
		Model: conv.Model,
		Title: util.TruncateRunes(title, 50),
	})
	if err != nil {
		c.setState(StateSettledFailed)
		return err
	}
	c.setConv(*created)
	c.setState(StateIdle)
	if c.hooks.OnConversationCreated != nil {
		c.hooks.OnConversationCreated(*created)
	}
	return nil
}

// classifyStreamFailure wraps raw reader errors as transport failures
// while letting decode and context errors through untouched.
func classifyStreamFailure(err error) error {
	if stream.IsDecodeError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		api.IsTransport(err) {
		return err
	}
	return &api.TransportError{Op: "stream reply", Err: err}
}

// NewConversation abandons the active conversation locally and swaps in
// the new-conversation marker with the given model preselected. The store
// is cleared, which also invalidates any in-flight stream's generation.
func (c *Controller) NewConversation(modelID string) error {
	if err := c.claim(); err != nil {
		return err
	}
	defer c.release()
	c.setConv(model.Conversation{Model: modelID})
	c.store.ReplaceAll(nil)
	c.setState(StateIdle)
	return nil
}

// =============================================================================
// TRANSCRIPT RELOAD
// =============================================================================

// LoadTranscript replaces the store contents with the full server-side
// history of the active conversation. On failure the store is untouched.
func (c *Controller) LoadTranscript(ctx context.Context) error {
	conv := c.Conversation()
	if conv.IsNew() {
		c.store.ReplaceAll(nil)
		return nil
	}

	var all []model.Message
	for page := 1; ; page++ {
		p, err := c.backend.ListMessages(ctx, conv.ID, page, c.pageSize)
		if err != nil {
			return err
		}
		all = append(all, p.Items...)
		if !p.HasMore() || len(p.Items) == 0 {
			break
		}
	}
	c.store.ReplaceAll(all)
	return nil
}
