// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the interactive conversation view. It renders the
// transcript store, drives sends and model switches through the
// conversation controller, and batches streaming refreshes so a fast
// reply does not flood the terminal.
package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/catalog"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl    *conversation.Controller
	catalog *catalog.Catalog
	cfg     *config.Config
	theme   *styles.Theme
	demo    bool

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Streaming refresh batching. Pointers so Bubble Tea's model copies
	// share state with the send goroutine.
	gate       *RefreshGate
	cancelMgr  *cancelManager
	tickActive bool

	// markdown renders settled assistant replies; nil when disabled or
	// the renderer failed to initialize.
	markdown *glamour.TermRenderer

	sendState conversation.State
	busy      bool
	errText   string
	notice    string
}

// New builds the chat view around an already-wired controller.
func New(ctrl *conversation.Controller, cat *catalog.Catalog, cfg *config.Config, theme *styles.Theme, demo bool) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message, or /help"
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	m := Model{
		ctrl:      ctrl,
		catalog:   cat,
		cfg:       cfg,
		theme:     theme,
		demo:      demo,
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		gate:      NewRefreshGate(),
		cancelMgr: newCancelManager(),
		sendState: conversation.StateIdle,
	}
	if cfg.UI.Markdown {
		m.markdown = newMarkdownRenderer(80)
	}
	return m
}

// newMarkdownRenderer builds a glamour renderer for the given wrap width,
// returning nil on failure so callers fall back to plain rendering.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init loads the transcript for the active conversation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.reloadCmd())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TranscriptChangedMsg:
		return m.handleTranscriptChanged()

	case renderTickMsg:
		return m.handleRenderTick()

	case StateChangedMsg:
		m.sendState = msg.State
		return m, nil

	case sendResultMsg:
		return m.handleSendResult(msg)

	case switchResultMsg:
		return m.handleSwitchResult(msg)

	case modelsLoadedMsg:
		return m.handleModelsLoaded(msg)

	case reloadResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = friendlyError(msg.err)
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Scroll events and anything unhandled go to the viewport, and to the
	// input while it accepts typing.
	var cmds []tea.Cmd
	if !m.busy {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Layout: header (1) + viewport + notice (1) + input (3) + status (1).
	const reservedHeight = 6
	vpHeight := m.height - reservedHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = vpHeight

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.cfg.UI.Markdown {
		wrap := m.width - 4
		if wrap < 40 {
			wrap = 40
		}
		m.markdown = newMarkdownRenderer(wrap)
	}

	m.refreshViewport()
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+q":
		return m, tea.Quit

	case "ctrl+c":
		if m.busy {
			m.cancelMgr.fire()
			return m, nil
		}
		return m, tea.Quit

	case "esc":
		if m.busy {
			m.cancelMgr.fire()
			return m, nil
		}
		m.errText = ""
		m.notice = ""
		return m, nil

	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
		return m, nil

	case "enter":
		if m.busy {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.errText = ""
		m.notice = ""
		if strings.HasPrefix(text, "/") {
			return m.handleCommand(text)
		}
		return m.startSend(text)
	}

	if m.busy {
		// Allow scrolling while a reply streams.
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// STREAMING REFRESH
// =============================================================================

func (m Model) handleTranscriptChanged() (tea.Model, tea.Cmd) {
	m.gate.Mark()
	if m.gate.TryTake() {
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}
	if !m.tickActive {
		m.tickActive = true
		return m, renderTickCmd()
	}
	return m, nil
}

func (m Model) handleRenderTick() (tea.Model, tea.Cmd) {
	m.tickActive = false
	if m.gate.Take() {
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
	if m.busy {
		m.tickActive = true
		return m, renderTickCmd()
	}
	return m, nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// startSend kicks off a Send on its own goroutine via tea.Cmd. A send
// against the new-conversation marker first creates the record and then
// resubmits the same text against the created id.
func (m Model) startSend(text string) (Model, tea.Cmd) {
	m.busy = true
	ctrl := m.ctrl
	cancelMgr := m.cancelMgr

	ctx, cancel := context.WithCancel(context.Background())
	cancelMgr.set(cancel)

	cmd := func() tea.Msg {
		defer cancelMgr.clear()
		conv := ctrl.Conversation()
		wasNew := conv.IsNew()
		err := ctrl.Send(ctx, text)
		if err == nil && wasNew {
			err = ctrl.Send(ctx, text)
		}
		return sendResultMsg{err: err}
	}
	return m, tea.Batch(cmd, m.spinner.Tick, renderTickCmd())
}

func (m Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errText = friendlyError(msg.err)
	}
	m.gate.Mark()
	m.gate.Take()
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

// startSwitch drives a model switch through the controller.
func (m Model) startSwitch(modelID string) (Model, tea.Cmd) {
	m.busy = true
	ctrl := m.ctrl
	cancelMgr := m.cancelMgr

	ctx, cancel := context.WithCancel(context.Background())
	cancelMgr.set(cancel)

	cmd := func() tea.Msg {
		defer cancelMgr.clear()
		err := ctrl.SwitchModel(ctx, modelID)
		return switchResultMsg{modelID: modelID, err: err}
	}
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) handleSwitchResult(msg switchResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errText = friendlyError(msg.err)
	} else {
		m.notice = "Switched to " + msg.modelID
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleModelsLoaded(msg modelsLoadedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errText = friendlyError(msg.err)
		return m, nil
	}
	var b strings.Builder
	b.WriteString("Models:")
	for _, mi := range msg.models {
		b.WriteString(" " + mi.ID)
	}
	m.notice = b.String()
	return m, nil
}

// reloadCmd replaces the transcript with the server-side history.
func (m Model) reloadCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return reloadResultMsg{err: ctrl.LoadTranscript(ctx)}
	}
}

// modelsCmd refreshes the catalog and reports its contents.
func (m Model) modelsCmd() tea.Cmd {
	cat := m.catalog
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cat.Load(ctx); err != nil {
			return modelsLoadedMsg{err: err}
		}
		return modelsLoadedMsg{models: cat.Models()}
	}
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// friendlyError maps the error taxonomy to a short operator-facing line.
func friendlyError(err error) string {
	switch {
	case api.IsAuth(err):
		return "Not signed in. Run `parley login` to store a token."
	case api.IsValidation(err):
		return err.Error()
	case api.IsTransport(err):
		if status := api.StatusOf(err); status > 0 {
			return "Service error (" + conversationStatusText(status) + ")"
		}
		return "Cannot reach the service. Check server.base_url."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	}
	return err.Error()
}

func conversationStatusText(status int) string {
	switch status {
	case 404:
		return "404 not found"
	case 429:
		return "429 rate limited"
	default:
		return "HTTP " + strconv.Itoa(status)
	}
}
