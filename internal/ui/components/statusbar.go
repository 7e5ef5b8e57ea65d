// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// StatusBar is the single-line footer: model, send state, message count,
// and the demo badge when active.
type StatusBar struct {
	Model    string
	State    string
	Messages int
	Demo     bool
	Width    int
	Theme    *styles.Theme
}

// Render returns the bar fitted to Width.
func (s StatusBar) Render() string {
	var parts []string

	modelName := s.Model
	if modelName == "" {
		modelName = "no model"
	}
	parts = append(parts, s.Theme.StatusModel.Render(modelName))

	if s.Demo {
		parts = append(parts, s.Theme.StatusDemo.Render("DEMO"))
	}
	if s.State != "" {
		parts = append(parts, s.Theme.StatusState.Render(s.State))
	}
	parts = append(parts, model.FormatMessageCount(s.Messages))

	line := strings.Join(parts, "  •  ")
	line = util.TruncateWidth(line, s.Width)
	return s.Theme.StatusBar.Width(s.Width).Render(line)
}

// ErrorBanner renders a one-line error notice above the input.
func ErrorBanner(theme *styles.Theme, width int, msg string) string {
	if msg == "" {
		return ""
	}
	return theme.ErrorBanner.Render(util.TruncateWidth("✗ "+msg, width))
}

// Divider renders a horizontal rule.
func Divider(width int) string {
	return lipgloss.NewStyle().
		Foreground(styles.OverlayDim).
		Render(strings.Repeat("─", max(width, 1)))
}
