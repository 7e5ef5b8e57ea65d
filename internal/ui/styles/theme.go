// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the chat view. It detects the
// terminal's color capability once at startup.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header and status
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusBar   lipgloss.Style
	StatusModel lipgloss.Style
	StatusDemo  lipgloss.Style
	StatusState lipgloss.Style

	// Message rendering
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	MessageBody    lipgloss.Style
	PendingMarker  lipgloss.Style
	Timestamp      lipgloss.Style

	// Input area
	InputPrompt lipgloss.Style
	InputBox    lipgloss.Style

	// Feedback
	ErrorBanner lipgloss.Style
	Spinner     lipgloss.Style
	Hint        lipgloss.Style
}

// NewTheme builds the theme for the current terminal. forceDark overrides
// background detection; pass "" for auto.
func NewTheme(mode string) *Theme {
	output := termenv.DefaultOutput()
	isDark := output.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: output.Profile,
	}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextMuted).
		Padding(0, 1)
	t.StatusModel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.StatusDemo = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.StatusState = lipgloss.NewStyle().
		Foreground(Emerald)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.SystemLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)
	t.MessageBody = lipgloss.NewStyle().
		Foreground(Text)
	t.PendingMarker = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	return t
}
