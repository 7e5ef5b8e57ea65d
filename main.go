// parley - a terminal client for the dialog service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/parley-tui/internal/catalog"
	"github.com/jeranaias/parley-tui/internal/cli"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/transcript"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// programRef lets controller hooks running on the send goroutine deliver
// messages into the Bubble Tea loop once the program exists.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	cli.Version = Version

	command, args, global := splitArgs(os.Args[1:])

	if global.version {
		fmt.Println("parley " + Version)
		return
	}

	cfg, err := loadConfig(global)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	switch command {
	case "", "tui":
		if err := runTUI(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		if err := cli.Run(cfg, command, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// globalFlags are recognized before any command word.
type globalFlags struct {
	configPath string
	demo       bool
	version    bool
}

// splitArgs separates global flags from the command word and its
// arguments. Everything after the command is left for the command's own
// parser.
func splitArgs(argv []string) (command string, rest []string, global globalFlags) {
	i := 0
	for i < len(argv) {
		switch arg := argv[i]; arg {
		case "--demo":
			global.demo = true
			i++
		case "--version", "-v":
			global.version = true
			i++
		case "--config":
			if i+1 < len(argv) {
				global.configPath = argv[i+1]
				i += 2
			} else {
				i++
			}
		case "--help", "-h":
			command = "help"
			i++
		default:
			command = arg
			rest = argv[i+1:]
			return command, rest, global
		}
	}
	return command, rest, global
}

func loadConfig(global globalFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if global.configPath != "" {
		cfg, err = config.LoadFromPath(global.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if global.demo {
		cfg.Demo.Enabled = true
	}
	return cfg, nil
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the TUI needs a terminal; try `parley chat` or `parley help`")
	}

	rt, err := cli.NewRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	cat := catalog.New(rt.Models)
	store := transcript.New()

	conv := model.Conversation{Model: cfg.Chat.DefaultModel}
	ctrl := conversation.New(rt.Backend, store, conv,
		conversation.WithPageSize(cfg.Chat.PageSize),
		conversation.WithModelValidator(func(id string) error {
			return cat.Validate(id)
		}),
		conversation.WithHooks(conversation.Hooks{
			OnStateChange: func(s conversation.State) {
				sendToProgram(chat.StateChangedMsg{State: s})
			},
		}),
	)

	// Every store mutation nudges the view; the chat model batches the
	// actual renders.
	store.Subscribe(func() {
		sendToProgram(chat.TranscriptChangedMsg{})
	})

	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(ctrl, cat, cfg, theme, rt.Demo)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Hot reload: edits to the config file update the shared snapshot for
	// the next operation. A reload never restarts the running program.
	if path, err := config.ConfigPath(); err == nil {
		if w, err := config.Watch(path, func(next *config.Config) {
			config.SetGlobal(next)
		}); err == nil {
			defer w.Close()
		}
	}

	_, err = p.Run()
	return err
}
