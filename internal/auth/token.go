// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/util"
)

// envToken overrides the token file when set. Useful for CI and one-off
// sessions.
const envToken = "PARLEY_TOKEN"

// Store is a file-backed credential store satisfying api.TokenSource.
// The file is consulted on every request, so `parley login` takes effect
// in a running session without a restart.
type Store struct {
	path string
}

// NewStore builds a store over the given token file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location.
func (s *Store) Path() string { return s.path }

// Token returns the credential, preferring the environment override.
// A missing credential is api.ErrNoCredential.
func (s *Store) Token() (string, error) {
	if tok := strings.TrimSpace(os.Getenv(envToken)); tok != "" {
		return tok, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", api.ErrNoCredential
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", api.ErrNoCredential
	}
	return tok, nil
}

// Save writes the credential. The file is 0600 under a 0700 directory;
// the token never goes anywhere else on disk.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &api.ValidationError{Field: "token", Reason: "token is empty"}
	}
	if err := util.AtomicWriteFileWithDir(s.path, []byte(token+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Clearing an absent file is fine.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
