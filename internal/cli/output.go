// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	headerStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)
)

// =============================================================================
// MARKDOWN RENDERING
// USABILITY: Markdown rendering for assistant replies on a TTY
// =============================================================================

var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// renderMarkdown renders markdown for terminal display, falling back to
// the raw content if the renderer is unavailable.
func renderMarkdown(content string) string {
	markdownRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(GetTerminalWidth()),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints an assistant reply, rendering markdown only when
// stdout is a terminal so piped output stays clean.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// printError writes a one-line diagnosis of err to stderr, translating the
// error taxonomy into operator advice.
func printError(err error) {
	var advice string
	switch {
	case api.IsAuth(err):
		advice = "Not signed in. Run `parley login` to store a token."
	case api.IsValidation(err):
		advice = err.Error()
	case api.IsTransport(err):
		if status := api.StatusOf(err); status > 0 {
			advice = fmt.Sprintf("service returned HTTP %d: %v", status, err)
		} else {
			advice = fmt.Sprintf("cannot reach the service: %v", err)
		}
	default:
		advice = err.Error()
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("[Error]"), advice)
}

// printSection writes a small underlined heading.
func printSection(title string) {
	fmt.Println()
	fmt.Println(headerStyle.Render(title))
	fmt.Println(infoStyle.Render(strings.Repeat("─", len(title))))
}
