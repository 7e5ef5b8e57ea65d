// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// cancelManager holds the cancel function for the in-flight send.
// Bubble Tea copies the model on every update, so the manager lives behind
// a pointer and guards the function with a mutex.
type cancelManager struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function, cancelling any previous one first.
func (c *cancelManager) set(fn context.CancelFunc) {
	c.mu.Lock()
	prev := c.cancel
	c.cancel = fn
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// fire cancels the in-flight operation, if any.
func (c *cancelManager) fire() {
	c.mu.Lock()
	fn := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// clear drops the stored function without cancelling.
func (c *cancelManager) clear() {
	c.mu.Lock()
	c.cancel = nil
	c.mu.Unlock()
}
