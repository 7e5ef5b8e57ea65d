// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// REFRESH GATE
// =============================================================================

// RefreshGate batches transcript change notifications into viewport
// refreshes. A streaming reply mutates the store once per decoded chunk,
// which can easily exceed a thousand notifications per second; rendering
// each one causes flicker and wastes CPU. The gate admits a refresh when
// either enough changes have accumulated or enough time has passed since
// the last render, capping the effective frame rate.
//
// Thread-safety: Mark is called from the store observer on the send
// goroutine while the takes happen on the Bubble Tea loop.
type RefreshGate struct {
	mu         sync.Mutex
	pending    int
	lastRender time.Time

	batchSize   int           // changes per forced refresh
	minInterval time.Duration // min time between refreshes (1000ms/maxFPS)
}

// NewRefreshGate creates a gate with the default 15-change batch at 30fps.
func NewRefreshGate() *RefreshGate {
	return NewRefreshGateWithConfig(15, 30)
}

// NewRefreshGateWithConfig creates a gate with a custom batch size and
// frame-rate cap. Out-of-range values fall back to the defaults.
func NewRefreshGateWithConfig(batchSize, maxFPS int) *RefreshGate {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &RefreshGate{
		batchSize:   batchSize,
		minInterval: time.Duration(1000/maxFPS) * time.Millisecond,
		lastRender:  time.Now(),
	}
}

// Mark records one transcript change.
func (g *RefreshGate) Mark() {
	g.mu.Lock()
	g.pending++
	g.mu.Unlock()
}

// TryTake reports whether a refresh is due and, if so, consumes the
// pending changes. A refresh is due when the batch size is reached or the
// minimum interval has elapsed with changes waiting.
func (g *RefreshGate) TryTake() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == 0 {
		return false
	}
	if g.pending < g.batchSize && time.Since(g.lastRender) < g.minInterval {
		return false
	}
	g.pending = 0
	g.lastRender = time.Now()
	return true
}

// Take consumes any pending changes regardless of thresholds. Used when a
// stream settles so the final chunk is never left unrendered.
func (g *RefreshGate) Take() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == 0 {
		return false
	}
	g.pending = 0
	g.lastRender = time.Now()
	return true
}

// Pending returns the number of unrendered changes.
func (g *RefreshGate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Reset discards pending changes without rendering.
func (g *RefreshGate) Reset() {
	g.mu.Lock()
	g.pending = 0
	g.lastRender = time.Now()
	g.mu.Unlock()
}

// renderTickCmd schedules the next batched refresh at ~30fps.
func renderTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return renderTickMsg{at: t}
	})
}
