// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Chat   ChatConfig   `toml:"chat"`
	Demo   DemoConfig   `toml:"demo"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig locates the dialog service.
type ServerConfig struct {
	// BaseURL is the service origin, scheme and host only.
	BaseURL string `toml:"base_url"`
	// TimeoutSecs bounds non-streaming requests. Clamped to 5-600.
	TimeoutSecs int `toml:"timeout_secs"`
	// RateLimit paces outbound requests per second. Clamped to 1-100.
	RateLimit float64 `toml:"rate_limit"`
	// MaxRetries is the retry budget for idempotent requests.
	MaxRetries int `toml:"max_retries"`
}

// AuthConfig locates the bearer credential.
type AuthConfig struct {
	// TokenFile is the path to the token file (empty = ~/.parley/token).
	TokenFile string `toml:"token_file"`
}

// ChatConfig holds conversation defaults.
type ChatConfig struct {
	// DefaultModel is used for new conversations when the service does
	// not suggest one.
	DefaultModel string `toml:"default_model"`
	// PageSize is the history page size for transcript loads. Clamped to
	// 1-200.
	PageSize int `toml:"page_size"`
}

// DemoConfig gates the in-memory demo backend. Never enabled implicitly.
type DemoConfig struct {
	Enabled bool `toml:"enabled"`
}

// UIConfig holds terminal rendering preferences.
type UIConfig struct {
	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme"`
	// Markdown renders finished assistant replies through glamour.
	Markdown bool `toml:"markdown"`
	// SyntaxTheme is the chroma style for code blocks.
	SyntaxTheme string `toml:"syntax_theme"`
}

// LogConfig controls the request log.
type LogConfig struct {
	Enabled bool `toml:"enabled"`
	// Path is the log file (empty = ~/.parley/parley.log).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: 60,
			RateLimit:   10,
			MaxRetries:  3,
		},
		Chat: ChatConfig{
			PageSize: 50,
		},
		UI: UIConfig{
			Theme:       "auto",
			Markdown:    true,
			SyntaxTheme: "monokai",
		},
		Log: LogConfig{
			Enabled: false,
		},
	}
}

// ConfigDir returns ~/.parley.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// TokenPath resolves the credential file location.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenFile != "" {
		return c.Auth.TokenFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}

// LogPath resolves the request log location.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "parley.log"), nil
}

// =============================================================================
// LOAD AND SAVE
// =============================================================================

// Load reads the default config file, applies env overrides, and
// validates. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load against an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to the default config path atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// SECURITY: The config dir also holds the credential file.
	return util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700)
}

// ApplyEnvOverrides applies PARLEY_* environment variables over the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("PARLEY_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("PARLEY_TOKEN_FILE"); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv("PARLEY_DEFAULT_MODEL"); v != "" {
		c.Chat.DefaultModel = v
	}
	if v := os.Getenv("PARLEY_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.PageSize = n
		}
	}
	if v := os.Getenv("PARLEY_DEMO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Demo.Enabled = b
		}
	}
	if v := os.Getenv("PARLEY_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// Validate checks and clamps configuration values in place.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must not be empty")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url is not a valid URL: %q", c.Server.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url scheme must be http or https, got %q", u.Scheme)
	}

	// Out-of-range numbers are clamped, not rejected.
	if c.Server.TimeoutSecs < 5 {
		c.Server.TimeoutSecs = 5
	}
	if c.Server.TimeoutSecs > 600 {
		c.Server.TimeoutSecs = 600
	}
	if c.Server.RateLimit < 1 {
		c.Server.RateLimit = 1
	}
	if c.Server.RateLimit > 100 {
		c.Server.RateLimit = 100
	}
	if c.Server.MaxRetries < 0 {
		c.Server.MaxRetries = 0
	}
	if c.Server.MaxRetries > 10 {
		c.Server.MaxRetries = 10
	}
	if c.Chat.PageSize < 1 {
		c.Chat.PageSize = 1
	}
	if c.Chat.PageSize > 200 {
		c.Chat.PageSize = 200
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	case "":
		c.UI.Theme = "auto"
	default:
		return fmt.Errorf("ui.theme must be dark, light, or auto, got %q", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
	loadOnce  sync.Once
)

// Global returns the process-wide configuration, loading it on first use.
// A load failure falls back to defaults.
func Global() *Config {
	loadOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalMu.Lock()
		globalCfg = cfg
		globalMu.Unlock()
	})
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// SetGlobal replaces the process-wide configuration. Used by the watcher
// and by tests.
func SetGlobal(cfg *Config) {
	loadOnce.Do(func() {})
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}
