// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const helpText = "/model <id>  switch model  |  /models  list models  |  /new  new conversation  |  /reload  refetch history  |  /quit"

// handleCommand dispatches a /command typed into the input.
func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	name := fields[0]
	args := fields[1:]

	switch name {
	case "/help", "/?":
		m.notice = helpText
		return m, nil

	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/models":
		m.busy = true
		return m, tea.Batch(m.modelsCmd(), m.spinner.Tick)

	case "/model":
		if len(args) == 0 {
			m.notice = "Usage: /model <id>"
			return m, nil
		}
		return m.startSwitch(args[0])

	case "/new":
		modelID := m.ctrl.Conversation().Model
		if modelID == "" {
			modelID = m.cfg.Chat.DefaultModel
		}
		if err := m.ctrl.NewConversation(modelID); err != nil {
			m.errText = friendlyError(err)
			return m, nil
		}
		m.notice = "New conversation"
		m.refreshViewport()
		return m, nil

	case "/reload":
		m.busy = true
		return m, tea.Batch(m.reloadCmd(), m.spinner.Tick)
	}

	m.notice = "Unknown command " + name + " (try /help)"
	return m, nil
}
