// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL for the parley CLI.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Command: chat
//
// Examples:
//   parley chat                      Start a new conversation
//   parley chat --model gpt-4o       Use a specific model
//   parley chat --id <conversation>  Resume an existing conversation
//
// Interactive commands (during chat):
//   /help, /h           Show available commands
//   /model [id]         Show or switch model
//   /models             List available models
//   /new                Start a new conversation
//   /history            Show the transcript
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current reply
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/catalog"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/transcript"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner with persistent input history.
// USABILITY: Arrow keys navigate history; the file lives next to the config.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor and loads prior history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads one line, recording non-empty input into history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists history (0600) and releases the terminal.
func (c *ChatCLI) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for one interactive session.
type ChatSession struct {
	Runtime *Runtime
	Store   *transcript.Store
	Ctrl    *conversation.Controller
	Catalog *catalog.Catalog
	Input   *ChatCLI

	StartTime time.Time
	Sends     int

	mu     sync.Mutex
	cancel context.CancelFunc

	// live printing of streamed chunks; off when markdown rendering will
	// reprint the reply at the end.
	printer *deltaPrinter
}

// setCancel swaps the cancel function for the in-flight send.
func (s *ChatSession) setCancel(fn context.CancelFunc) {
	s.mu.Lock()
	s.cancel = fn
	s.mu.Unlock()
}

// fireCancel cancels the in-flight send, if any.
func (s *ChatSession) fireCancel() bool {
	s.mu.Lock()
	fn := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if fn != nil {
		fn()
		return true
	}
	return false
}

// =============================================================================
// DELTA PRINTER
// =============================================================================

// deltaPrinter echoes streamed assistant content as it lands in the
// transcript store. Observer callbacks fire synchronously on the send
// goroutine, so chunks print in order with no buffering.
type deltaPrinter struct {
	store   *transcript.Store
	enabled bool
	msgID   string
	printed int
}

func newDeltaPrinter(store *transcript.Store) *deltaPrinter {
	p := &deltaPrinter{store: store}
	store.Subscribe(p.onChange)
	return p
}

func (p *deltaPrinter) onChange() {
	if !p.enabled {
		return
	}
	last, ok := p.store.Last()
	if !ok || last.Role != model.RoleAssistant {
		return
	}
	if last.ID != p.msgID {
		p.msgID = last.ID
		p.printed = 0
	}
	if len(last.Content) > p.printed {
		fmt.Print(last.Content[p.printed:])
		p.printed = len(last.Content)
	}
}

func (p *deltaPrinter) start() {
	p.msgID = ""
	p.printed = 0
	p.enabled = true
}

func (p *deltaPrinter) stop() {
	p.enabled = false
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive REPL.
func HandleChatCommand(rt *Runtime, args *ArgParser) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	cat := catalog.New(rt.Models)

	// Pick the starting model: flag > config > first catalog entry.
	modelID := args.FlagOrDefault("model", args.Flag("m"))
	if modelID == "" {
		modelID = rt.Cfg.Chat.DefaultModel
	}
	if modelID == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := cat.Load(ctx); err == nil {
			modelID = cat.Default()
		}
		cancel()
	}

	store := transcript.New()
	conv := model.Conversation{Model: modelID}
	if id := args.Flag("id"); id != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		existing, err := rt.Backend.Conversation(ctx, id)
		cancel()
		if err != nil {
			return err
		}
		conv = *existing
	}

	ctrl := conversation.New(rt.Backend, store, conv,
		conversation.WithPageSize(rt.Cfg.Chat.PageSize),
		conversation.WithModelValidator(func(id string) error {
			return cat.Validate(id)
		}),
	)

	session := &ChatSession{
		Runtime:   rt,
		Store:     store,
		Ctrl:      ctrl,
		Catalog:   cat,
		Input:     NewChatCLI(),
		StartTime: time.Now(),
		printer:   newDeltaPrinter(store),
	}
	defer session.Input.Close()

	// Resuming: pull the existing transcript before the first prompt.
	if !conv.IsNew() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := ctrl.LoadTranscript(ctx)
		cancel()
		if err != nil {
			return err
		}
	}

	printWelcome(session)

	// First Ctrl+C cancels the in-flight reply instead of killing the
	// process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if session.fireCancel() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := session.Input.ReadInput(promptStyle.Render("parley> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) or EOF (Ctrl+D).
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := handleSlashCommand(input, session)
			if err != nil {
				printError(err)
			}
			if !cont {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			printError(err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends input and prints the streamed reply. On a new
// conversation the first Send only creates the record, so the text is
// resubmitted against the created id.
func processMessage(session *ChatSession, input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.setCancel(nil)
		cancel()
	}()

	useMarkdown := IsStdoutTTY()

	fmt.Println()
	if !useMarkdown {
		session.printer.start()
		defer session.printer.stop()
	}

	start := time.Now()
	conv := session.Ctrl.Conversation()
	wasNew := conv.IsNew()
	err := session.Ctrl.Send(ctx, input)
	if err == nil && wasNew {
		err = session.Ctrl.Send(ctx, input)
	}
	if err != nil {
		return err
	}
	session.Sends++

	if useMarkdown {
		if last, ok := session.Store.Last(); ok && last.Role == model.RoleAssistant {
			displayResponse(last.Content)
		}
	}
	fmt.Println()

	fmt.Fprintf(os.Stderr, "%s %s | %s\n",
		infoStyle.Render("[Stats]"),
		commandStyle.Render(session.Ctrl.Conversation().Model),
		time.Since(start).Round(time.Millisecond))

	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes a /command. A false return exits the REPL.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printHelp()
		return true, nil

	case "/model", "/m":
		return handleModelCommand(session, args)

	case "/models":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := session.Catalog.Load(ctx); err != nil {
			return true, err
		}
		printModelList(session.Catalog.Models(), session.Ctrl.Conversation().Model)
		return true, nil

	case "/new":
		modelID := session.Ctrl.Conversation().Model
		if err := session.Ctrl.NewConversation(modelID); err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[New conversation]"))
		return true, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil
	}

	return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
}

// handleModelCommand shows or switches the active model.
func handleModelCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(session.Ctrl.Conversation().Model))
		return true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := session.Ctrl.SwitchModel(ctx, args[0]); err != nil {
		return true, err
	}
	fmt.Printf("%s Switched to model: %s\n", commandStyle.Render("[OK]"), args[0])
	return true, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("parley interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	conv := session.Ctrl.Conversation()
	modelName := conv.Model
	if modelName == "" {
		modelName = "(service default)"
	}
	fmt.Printf("%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(modelName))
	if session.Runtime.Demo {
		fmt.Printf("%s %s\n", infoStyle.Render("Mode:"), warningStyle.Render("Demo (no network)"))
	} else {
		fmt.Printf("%s %s\n", infoStyle.Render("Server:"), commandStyle.Render(session.Runtime.Cfg.Server.BaseURL))
	}
	if !conv.IsNew() {
		fmt.Printf("%s %s (%s)\n",
			infoStyle.Render("Resumed:"),
			util.TruncateRunes(conv.Title, 40),
			model.FormatMessageCount(session.Store.Len()))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func printHelp() {
	printSection("Available Commands")
	fmt.Println()
	for _, c := range []struct{ cmd, desc string }{
		{"/help, /h", "Show this help"},
		{"/model [id]", "Show or switch model"},
		{"/models", "List available models"},
		{"/new", "Start a new conversation"},
		{"/history", "Show the transcript"},
		{"/quit, /q", "Exit chat"},
	} {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-14s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current reply, Ctrl+D exits"))
	fmt.Println()
}

func printModelList(models []model.ModelInfo, active string) {
	printSection("Models")
	fmt.Println()
	for _, mi := range models {
		marker := "  "
		name := mi.ID
		if mi.ID == active {
			marker = commandStyle.Render("* ")
			name = commandStyle.Render(name)
		}
		line := fmt.Sprintf("%s%s", marker, name)
		if mi.Provider != "" {
			line += infoStyle.Render("  (" + mi.Provider + ")")
		}
		fmt.Println(line)
	}
	fmt.Println()
}

func printHistory(session *ChatSession) {
	msgs := session.Store.Messages()
	if len(msgs) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	printSection("Transcript")
	fmt.Println()
	for i, msg := range msgs {
		var role string
		switch msg.Role {
		case model.RoleUser:
			role = promptStyle.Render("You")
		case model.RoleAssistant:
			role = welcomeStyle.Render("Assistant")
		default:
			role = warningStyle.Render("System")
		}
		fmt.Printf("  %d. %s: %s\n", i+1, role, msg.Preview(100))
	}
	fmt.Println()
}

func printExitSummary(session *ChatSession) {
	if session.Sends == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	printSection("Session Summary")
	fmt.Printf("  %s %d\n", infoStyle.Render("Sends:"), session.Sends)
	fmt.Printf("  %s %s\n", infoStyle.Render("Messages:"), model.FormatMessageCount(session.Store.Len()))
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"),
		time.Since(session.StartTime).Round(time.Second).String())
	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
