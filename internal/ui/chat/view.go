// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the chat view.
// Layout: header (1) + messages (viewport) + notice (1) + input (3) + status (1).
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	messages := m.viewport.View()
	notice := m.renderNotice()
	input := m.renderInput()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		messages,
		notice,
		input,
		status,
	)
}

func (m Model) renderHeader() string {
	conv := m.ctrl.Conversation()
	title := conv.Title
	if title == "" {
		title = "New conversation"
	}
	line := m.theme.HeaderTitle.Render("parley") + "  " + util.TruncateWidth(title, m.width-10)
	return m.theme.Header.Width(m.width).Render(line)
}

func (m Model) renderNotice() string {
	switch {
	case m.errText != "":
		return components.ErrorBanner(m.theme, m.width, m.errText)
	case m.notice != "":
		return m.theme.Hint.Render(util.TruncateWidth(m.notice, m.width))
	}
	return ""
}

func (m Model) renderInput() string {
	divider := components.Divider(m.width)
	var line string
	if m.busy {
		line = m.spinner.View() + " " + m.theme.PendingMarker.Render(m.sendState.String()+"... esc cancels")
	} else {
		line = m.input.View()
	}
	hint := m.theme.Hint.Render("enter sends  /help commands  ctrl+c quits")
	return lipgloss.JoinVertical(lipgloss.Left, divider, line, hint)
}

func (m Model) renderStatusBar() string {
	bar := components.StatusBar{
		Model:    m.ctrl.Conversation().Model,
		State:    m.sendState.String(),
		Messages: m.ctrl.Store().Len(),
		Demo:     m.demo,
		Width:    m.width,
		Theme:    m.theme,
	}
	return bar.Render()
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
}

func (m *Model) renderMessages() string {
	msgs := m.ctrl.Store().Messages()
	if len(msgs) == 0 {
		return m.theme.Hint.Render("  No messages yet. Say something.")
	}

	streaming := m.sendState == conversation.StateStreaming
	var blocks []string
	for i, msg := range msgs {
		last := i == len(msgs)-1
		blocks = append(blocks, m.renderMessage(msg, last && streaming))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg model.Message, live bool) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render("You")
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render("Assistant")
	default:
		label = m.theme.SystemLabel.Render("System")
	}
	if msg.Pending && msg.Role == model.RoleUser {
		label += " " + m.theme.PendingMarker.Render("(sending)")
	}
	if !msg.CreatedAt.IsZero() {
		label += "  " + m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))
	}

	body := m.renderBody(msg, live)
	return label + "\n" + body
}

// renderBody picks the content renderer. Settled assistant replies go
// through glamour when markdown is on; everything else gets the plain
// code-block pass so fenced blocks still highlight while streaming.
func (m *Model) renderBody(msg model.Message, live bool) string {
	content := msg.Content
	if content == "" && live {
		return m.theme.PendingMarker.Render("...")
	}

	if msg.Role == model.RoleAssistant && !live && !msg.Pending && m.markdown != nil {
		if out, err := m.markdown.Render(content); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	width := m.width - 4
	if width < 40 {
		width = 40
	}
	return m.theme.MessageBody.Render(components.ParseCodeBlocks(content, width, m.cfg.UI.SyntaxTheme))
}
