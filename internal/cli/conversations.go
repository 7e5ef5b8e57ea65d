// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/parley-tui/internal/util"
)

// HandleConversationsCommand lists the account's conversations.
//
//	parley conversations [--page N] [--size N]
func HandleConversationsCommand(rt *Runtime, args *ArgParser) error {
	page := args.FlagIntOrDefault("page", 1)
	size := args.FlagIntOrDefault("size", 20)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := rt.Conversations.ListConversations(ctx, page, size)
	if err != nil {
		return err
	}

	if len(result.Items) == 0 {
		fmt.Println(infoStyle.Render("No conversations."))
		return nil
	}

	printSection(fmt.Sprintf("Conversations (page %d, %d total)", result.Page, result.Total))
	fmt.Println()
	for _, conv := range result.Items {
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  %s  %s %s\n",
			commandStyle.Render(conv.ID),
			util.TruncateRunes(title, 50),
			infoStyle.Render("["+conv.Model+"]"))
	}
	fmt.Println()
	if result.HasMore() {
		fmt.Println(infoStyle.Render(fmt.Sprintf("More available: --page %d", page+1)))
	}
	return nil
}
