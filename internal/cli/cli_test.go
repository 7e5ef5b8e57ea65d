// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestArgParserFlagFormats(t *testing.T) {
	p := NewArgParser([]string{"list", "--query", "linter", "--sort=downloads", "--json", "-p", "2"})

	if p.Subcommand() != "list" {
		t.Errorf("Subcommand = %q, want list", p.Subcommand())
	}
	if got := p.Flag("query"); got != "linter" {
		t.Errorf("Flag(query) = %q, want linter", got)
	}
	if got := p.Flag("sort"); got != "downloads" {
		t.Errorf("Flag(sort) = %q, want downloads", got)
	}
	if !p.BoolFlag("json") {
		t.Error("BoolFlag(json) = false, want true")
	}
	if got := p.FlagIntOrDefault("p", 1); got != 2 {
		t.Errorf("FlagIntOrDefault(p) = %d, want 2", got)
	}
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--json=false", "--wide=true"})
	if p.BoolFlag("json") {
		t.Error("BoolFlag(json) = true, want false")
	}
	if !p.BoolFlag("wide") {
		t.Error("BoolFlag(wide) = false, want true")
	}
}

func TestArgParserPositionals(t *testing.T) {
	p := NewArgParser([]string{"search", "static", "analysis", "--sort", "name"})

	if p.PositionalCount() != 3 {
		t.Fatalf("PositionalCount = %d, want 3", p.PositionalCount())
	}
	if got := p.Positional(1); got != "static" {
		t.Errorf("Positional(1) = %q, want static", got)
	}
	rest := p.PositionalFrom(1)
	if len(rest) != 2 || rest[0] != "static" || rest[1] != "analysis" {
		t.Errorf("PositionalFrom(1) = %v, want [static analysis]", rest)
	}
	if p.Positional(10) != "" {
		t.Error("out-of-range Positional should be empty")
	}
}

func TestArgParserDefaults(t *testing.T) {
	p := NewArgParser(nil)
	if p.Subcommand() != "" {
		t.Error("empty args should have no subcommand")
	}
	if got := p.FlagOrDefault("missing", "fallback"); got != "fallback" {
		t.Errorf("FlagOrDefault = %q, want fallback", got)
	}
	if got := p.FlagIntOrDefault("missing", 7); got != 7 {
		t.Errorf("FlagIntOrDefault = %d, want 7", got)
	}
}

func TestArgParserMalformedInt(t *testing.T) {
	p := NewArgParser([]string{"--page", "abc"})
	if got := p.FlagIntOrDefault("page", 3); got != 3 {
		t.Errorf("FlagIntOrDefault on malformed value = %d, want 3", got)
	}
}
