// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Credential commands for the parley CLI.
//
// SECURITY: The token is read without terminal echo and stored 0600.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// HandleLoginCommand stores the bearer token for the dialog service.
//
//	parley login                 Prompt for the token (no echo)
//	parley login --stdin         Read the token from stdin (for scripts)
func HandleLoginCommand(rt *Runtime, args *ArgParser) error {
	var token string

	if args.BoolFlag("stdin") || !IsTTY() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token from stdin: %w", err)
		}
		token = line
	} else {
		fmt.Print("Token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = string(raw)
	}

	token = strings.TrimSpace(token)
	if err := rt.Tokens.Save(token); err != nil {
		return err
	}
	fmt.Printf("%s Token saved to %s\n", commandStyle.Render("[OK]"), rt.Tokens.Path())
	return nil
}

// HandleLogoutCommand removes the stored token.
func HandleLogoutCommand(rt *Runtime) error {
	if err := rt.Tokens.Clear(); err != nil {
		return err
	}
	fmt.Println(commandStyle.Render("[OK]") + " Token removed")
	return nil
}
