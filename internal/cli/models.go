// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/parley-tui/internal/catalog"
)

// HandleModelsCommand lists the models the service offers.
//
//	parley models
func HandleModelsCommand(rt *Runtime, args *ArgParser) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat := catalog.New(rt.Models)
	if err := cat.Load(ctx); err != nil {
		return err
	}

	models := cat.Models()
	if len(models) == 0 {
		fmt.Println(infoStyle.Render("No models available."))
		return nil
	}

	printSection("Models")
	fmt.Println()
	for _, mi := range models {
		line := "  " + commandStyle.Render(mi.ID)
		if mi.Name != "" && mi.Name != mi.ID {
			line += "  " + mi.Name
		}
		if mi.Provider != "" {
			line += infoStyle.Render("  (" + mi.Provider + ")")
		}
		fmt.Println(line)
		if mi.Description != "" {
			fmt.Println(infoStyle.Render("      " + mi.Description))
		}
	}
	fmt.Println()
	return nil
}
