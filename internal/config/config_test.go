// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Demo.Enabled {
		t.Error("demo mode must default off")
	}
	if cfg.Server.BaseURL == "" {
		t.Error("default base url empty")
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Chat.PageSize != Default().Chat.PageSize {
		t.Errorf("page size = %d", cfg.Chat.PageSize)
	}
}

func TestLoadFromPathParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
base_url = "https://dialog.example.com"
timeout_secs = 30

[chat]
default_model = "claude-sonnet"
page_size = 25

[demo]
enabled = true

[ui]
theme = "light"
markdown = false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "https://dialog.example.com" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("timeout = %d", cfg.Server.TimeoutSecs)
	}
	if cfg.Chat.DefaultModel != "claude-sonnet" {
		t.Errorf("model = %q", cfg.Chat.DefaultModel)
	}
	if !cfg.Demo.Enabled {
		t.Error("demo flag not read")
	}
	if cfg.UI.Theme != "light" || cfg.UI.Markdown {
		t.Errorf("ui = %+v", cfg.UI)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_SERVER_URL", "https://override.example.com")
	t.Setenv("PARLEY_DEMO", "true")
	t.Setenv("PARLEY_PAGE_SIZE", "10")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "https://override.example.com" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if !cfg.Demo.Enabled {
		t.Error("demo env override not applied")
	}
	if cfg.Chat.PageSize != 10 {
		t.Errorf("page size = %d", cfg.Chat.PageSize)
	}
}

func TestValidateClampsRanges(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 100000
	cfg.Server.RateLimit = 0
	cfg.Chat.PageSize = 9999
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Server.TimeoutSecs != 600 {
		t.Errorf("timeout = %d, want clamped 600", cfg.Server.TimeoutSecs)
	}
	if cfg.Server.RateLimit != 1 {
		t.Errorf("rate = %v, want clamped 1", cfg.Server.RateLimit)
	}
	if cfg.Chat.PageSize != 200 {
		t.Errorf("page size = %d, want clamped 200", cfg.Chat.PageSize)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for malformed url")
	}

	cfg = Default()
	cfg.Server.BaseURL = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestValidateRejectsUnknownTheme(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "solarized"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\npage_size = 10\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[chat]\npage_size = 20\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Chat.PageSize != 20 {
			t.Errorf("page size = %d, want 20", cfg.Chat.PageSize)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired")
	}
}
