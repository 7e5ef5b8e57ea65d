// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/catalog"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/demo"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/plugins"
)

// =============================================================================
// RUNTIME WIRING
// =============================================================================

// ConversationLister pages through the account's conversations.
type ConversationLister interface {
	ListConversations(ctx context.Context, page, size int) (*model.ConversationPage, error)
}

// Runtime bundles the wired service clients for one invocation. The demo
// backend replaces the live client only when demo.enabled is set in the
// config; it is never a silent fallback.
type Runtime struct {
	Cfg           *config.Config
	Tokens        *auth.Store
	Backend       conversation.Backend
	Conversations ConversationLister
	Plugins       *plugins.Manager
	PluginSvc     plugins.Service
	Models        catalog.Source
	Demo          bool

	logClose io.Closer
}

// NewRuntime builds the backend stack from config.
func NewRuntime(cfg *config.Config) (*Runtime, error) {
	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}
	tokens := auth.NewStore(tokenPath)

	rt := &Runtime{Cfg: cfg, Tokens: tokens}

	if cfg.Demo.Enabled {
		b := demo.New()
		rt.Backend = b
		rt.Conversations = b
		rt.Plugins = plugins.NewManager(b)
		rt.PluginSvc = b
		rt.Models = b
		rt.Demo = true
		return rt, nil
	}

	opts := []api.Option{
		api.WithMaxRetries(cfg.Server.MaxRetries),
		api.WithRateLimit(cfg.Server.RateLimit),
	}
	if cfg.Log.Enabled {
		if logger, closer, err := openRequestLog(cfg); err == nil {
			opts = append(opts, api.WithLogger(logger))
			rt.logClose = closer
		}
	}

	client := api.New(cfg.Server.BaseURL, tokens, opts...)
	rt.Backend = client
	rt.Conversations = client
	rt.Plugins = plugins.NewManager(client)
	rt.PluginSvc = client
	rt.Models = client
	return rt, nil
}

// Close releases runtime resources (the request log file).
func (rt *Runtime) Close() {
	if rt.logClose != nil {
		rt.logClose.Close()
	}
}

// openRequestLog opens the append-only request log named by config.
func openRequestLog(cfg *config.Config) (*log.Logger, io.Closer, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), f, nil
}
