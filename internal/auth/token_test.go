// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "token"))

	_, err := s.Token()
	require.True(t, errors.Is(err, api.ErrNoCredential), "missing file should be ErrNoCredential, got %v", err)

	require.NoError(t, s.Save("  secret-token  "))

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret-token", tok, "token should round-trip trimmed")

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "token file must be 0600")
}

func TestEnvOverrideWins(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, s.Save("file-token"))

	t.Setenv(envToken, "env-token")
	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "env-token", tok)
}

func TestSaveRejectsEmptyToken(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "token"))
	err := s.Save("   ")
	assert.True(t, api.IsValidation(err), "expected ValidationError, got %v", err)
}

func TestClear(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, s.Save("tok"))
	require.NoError(t, s.Clear())

	_, err := s.Token()
	assert.True(t, errors.Is(err, api.ErrNoCredential))

	// Clearing again is not an error.
	assert.NoError(t, s.Clear())
}

func TestEmptyFileIsNoCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0600))

	_, err := NewStore(path).Token()
	assert.True(t, errors.Is(err, api.ErrNoCredential))
}
