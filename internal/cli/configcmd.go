// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/parley-tui/internal/config"
)

// HandleConfigCommand inspects or initializes the config file.
//
//	parley config         Show the effective configuration
//	parley config path    Print the config file path
//	parley config init    Write the default config file
func HandleConfigCommand(rt *Runtime, args *ArgParser) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	switch args.Subcommand() {
	case "path":
		fmt.Println(path)
		return nil

	case "init":
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", commandStyle.Render("[OK]"), path)
		return nil

	case "":
		cfg := rt.Cfg
		printSection("Configuration")
		fmt.Println()
		fmt.Printf("  %s %s\n", infoStyle.Render("File:"), path)
		fmt.Printf("  %s %s\n", infoStyle.Render("Server:"), cfg.Server.BaseURL)
		fmt.Printf("  %s %ds, %g req/s, %d retries\n", infoStyle.Render("Limits:"),
			cfg.Server.TimeoutSecs, cfg.Server.RateLimit, cfg.Server.MaxRetries)
		fmt.Printf("  %s %s\n", infoStyle.Render("Default model:"), orNone(cfg.Chat.DefaultModel))
		fmt.Printf("  %s %d\n", infoStyle.Render("Page size:"), cfg.Chat.PageSize)
		fmt.Printf("  %s %v\n", infoStyle.Render("Demo mode:"), cfg.Demo.Enabled)
		fmt.Printf("  %s theme=%s markdown=%v syntax=%s\n", infoStyle.Render("UI:"),
			cfg.UI.Theme, cfg.UI.Markdown, cfg.UI.SyntaxTheme)
		fmt.Printf("  %s %s\n", infoStyle.Render("Token file:"), rt.Tokens.Path())
		fmt.Println()
		return nil
	}

	return fmt.Errorf("unknown config subcommand: %s", args.Subcommand())
}

func orNone(s string) string {
	if s == "" {
		return infoStyle.Render("(none)")
	}
	return s
}
