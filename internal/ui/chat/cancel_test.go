// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"
)

func TestCancelManagerFire(t *testing.T) {
	cm := newCancelManager()

	ctx, cancel := context.WithCancel(context.Background())
	cm.set(cancel)
	cm.fire()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("fire did not cancel the stored context")
	}

	// A second fire with nothing stored is a no-op.
	cm.fire()
}

func TestCancelManagerSetCancelsPrevious(t *testing.T) {
	cm := newCancelManager()

	first, cancelFirst := context.WithCancel(context.Background())
	cm.set(cancelFirst)

	second, cancelSecond := context.WithCancel(context.Background())
	cm.set(cancelSecond)

	select {
	case <-first.Done():
	default:
		t.Fatal("set did not cancel the previous context")
	}
	select {
	case <-second.Done():
		t.Fatal("set cancelled the new context")
	default:
	}

	cm.clear()
	cm.fire()
	select {
	case <-second.Done():
		t.Fatal("fire after clear cancelled the cleared context")
	default:
	}
	cancelSecond()
}
