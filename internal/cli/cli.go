// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/parley-tui/internal/config"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes a CLI command. The caller has already loaded config and
// stripped the program name and the command word; args holds everything
// after the command.
func Run(cfg *config.Config, command string, args []string) error {
	rt, err := NewRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	parser := NewArgParser(args)

	switch command {
	case "chat":
		return HandleChatCommand(rt, parser)
	case "models":
		return HandleModelsCommand(rt, parser)
	case "conversations":
		return HandleConversationsCommand(rt, parser)
	case "plugins":
		return HandlePluginsCommand(rt, parser)
	case "login":
		return HandleLoginCommand(rt, parser)
	case "logout":
		return HandleLogoutCommand(rt)
	case "config":
		return HandleConfigCommand(rt, parser)
	case "version":
		fmt.Println("parley " + Version)
		return nil
	case "help", "":
		PrintUsage()
		return nil
	}
	PrintUsage()
	return fmt.Errorf("unknown command: %s", command)
}

// PrintUsage writes the top-level help text.
func PrintUsage() {
	fmt.Println(welcomeStyle.Render("parley") + infoStyle.Render(" - terminal client for the dialog service"))
	fmt.Println()
	fmt.Println(headerStyle.Render("Usage"))
	fmt.Println("  parley [command] [flags]")
	fmt.Println()
	fmt.Println(headerStyle.Render("Commands"))
	for _, c := range []struct{ name, desc string }{
		{"(none)", "Launch the full-screen TUI"},
		{"chat", "Interactive chat REPL"},
		{"models", "List available models"},
		{"conversations", "List conversations"},
		{"plugins", "Browse and manage marketplace plugins"},
		{"login", "Store the service token"},
		{"logout", "Remove the stored token"},
		{"config", "Show or initialize the config file"},
		{"version", "Print the version"},
	} {
		fmt.Printf("  %s  %s\n", commandStyle.Render(fmt.Sprintf("%-14s", c.name)), infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("Global flags"))
	fmt.Println("  " + commandStyle.Render("--demo        ") + "  " + infoStyle.Render("Use the built-in demo backend (no network)"))
	fmt.Println("  " + commandStyle.Render("--config PATH ") + "  " + infoStyle.Render("Use an alternate config file"))
	fmt.Println()
}
