// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// plugins.go - Marketplace commands for the parley CLI.
//
// Command: plugins
//
// Examples:
//   parley plugins list --sort downloads     Browse the marketplace
//   parley plugins list --query linter       Filter by name or tag
//   parley plugins installed                 Show installed plugins
//   parley plugins show <id>                 Plugin details
//   parley plugins install <id>              Install on the service
//   parley plugins uninstall <id>            Uninstall from the service
//   parley plugins search <query>            Search the shared repository
//   parley plugins upload <file.zip>         Upload a plugin archive
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/model"
)

// repositorySearcher and pluginUploader are live-client extras; the demo
// backend does not implement them.
type repositorySearcher interface {
	SearchRepository(ctx context.Context, query string) ([]model.Plugin, error)
}

type pluginUploader interface {
	UploadPlugin(ctx context.Context, filename string, archive io.Reader) (*model.Plugin, error)
}

// HandlePluginsCommand dispatches the plugins subcommands.
func HandlePluginsCommand(rt *Runtime, args *ArgParser) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch args.Subcommand() {
	case "", "list":
		return pluginsList(ctx, rt, args)
	case "installed":
		return pluginsInstalled(ctx, rt)
	case "show":
		return pluginsShow(ctx, rt, args.Positional(1))
	case "install":
		return pluginsInstall(ctx, rt, args.Positional(1))
	case "uninstall":
		return pluginsUninstall(ctx, rt, args.Positional(1))
	case "search":
		return pluginsSearch(ctx, rt, strings.Join(args.PositionalFrom(1), " "))
	case "upload":
		return pluginsUpload(ctx, rt, args.Positional(1))
	}
	return fmt.Errorf("unknown plugins subcommand: %s", args.Subcommand())
}

func pluginsList(ctx context.Context, rt *Runtime, args *ArgParser) error {
	sort := model.PluginSort(args.FlagOrDefault("sort", string(model.PluginSortPopular)))
	if !sort.Valid() {
		return fmt.Errorf("invalid sort %q (popular, newest, name, downloads)", sort)
	}

	list, err := rt.Plugins.Search(ctx, args.Flag("query"), sort)
	if err != nil {
		return err
	}
	printPluginTable("Marketplace", list)
	return nil
}

func pluginsInstalled(ctx context.Context, rt *Runtime) error {
	list, err := rt.Plugins.Installed(ctx)
	if err != nil {
		return err
	}
	printPluginTable("Installed Plugins", list)
	return nil
}

func pluginsShow(ctx context.Context, rt *Runtime, id string) error {
	if id == "" {
		return fmt.Errorf("usage: parley plugins show <id>")
	}
	p, err := rt.Plugins.Get(ctx, id)
	if err != nil {
		return err
	}

	printSection(p.Name)
	fmt.Println()
	fmt.Printf("  %s %s\n", infoStyle.Render("ID:"), p.ID)
	fmt.Printf("  %s %s\n", infoStyle.Render("Version:"), p.Version)
	fmt.Printf("  %s %s\n", infoStyle.Render("Author:"), p.Author)
	fmt.Printf("  %s %d\n", infoStyle.Render("Downloads:"), p.Downloads)
	if len(p.Tags) > 0 {
		fmt.Printf("  %s %s\n", infoStyle.Render("Tags:"), strings.Join(p.Tags, ", "))
	}
	if p.Installed {
		fmt.Printf("  %s %s\n", infoStyle.Render("Status:"), commandStyle.Render("installed"))
	}
	if p.Description != "" {
		fmt.Println()
		fmt.Println("  " + p.Description)
	}
	fmt.Println()
	return nil
}

func pluginsInstall(ctx context.Context, rt *Runtime, id string) error {
	if id == "" {
		return fmt.Errorf("usage: parley plugins install <id>")
	}
	p, err := rt.Plugins.Install(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s Installed %s %s\n", commandStyle.Render("[OK]"), p.Name, p.Version)
	return nil
}

func pluginsUninstall(ctx context.Context, rt *Runtime, id string) error {
	if id == "" {
		return fmt.Errorf("usage: parley plugins uninstall <id>")
	}
	if err := rt.Plugins.Uninstall(ctx, id); err != nil {
		return err
	}
	fmt.Printf("%s Uninstalled %s\n", commandStyle.Render("[OK]"), id)
	return nil
}

func pluginsSearch(ctx context.Context, rt *Runtime, query string) error {
	if query == "" {
		return fmt.Errorf("usage: parley plugins search <query>")
	}
	searcher, ok := rt.PluginSvc.(repositorySearcher)
	if !ok {
		return fmt.Errorf("repository search is not available in demo mode")
	}
	plugins, err := searcher.SearchRepository(ctx, query)
	if err != nil {
		return err
	}
	printPluginTable("Repository Results", plugins)
	return nil
}

func pluginsUpload(ctx context.Context, rt *Runtime, path string) error {
	if path == "" {
		return fmt.Errorf("usage: parley plugins upload <file.zip>")
	}
	uploader, ok := rt.PluginSvc.(pluginUploader)
	if !ok {
		return fmt.Errorf("plugin upload is not available in demo mode")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := uploader.UploadPlugin(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Printf("%s Uploaded %s %s\n", commandStyle.Render("[OK]"), p.Name, p.Version)
	return nil
}

func printPluginTable(title string, plugins []model.Plugin) {
	if len(plugins) == 0 {
		fmt.Println(infoStyle.Render("No plugins found."))
		return
	}
	printSection(title)
	fmt.Println()
	for _, p := range plugins {
		marker := "  "
		if p.Installed {
			marker = commandStyle.Render("* ")
		}
		fmt.Printf("%s%s %s %s\n",
			marker,
			commandStyle.Render(p.ID),
			p.Name,
			infoStyle.Render(fmt.Sprintf("v%s, %d downloads", p.Version, p.Downloads)))
	}
	fmt.Println()
}
