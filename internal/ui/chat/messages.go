// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================
//
// The controller streams replies into the transcript store from its own
// goroutine. The main program bridges store notifications and state changes
// into the Bubble Tea loop with the two exported messages below; everything
// else is internal to the view.

// TranscriptChangedMsg signals that the transcript store mutated. Sent from
// the store observer bridge in main.
type TranscriptChangedMsg struct{}

// StateChangedMsg carries a send-state transition from the controller hooks.
type StateChangedMsg struct {
	State conversation.State
}

// renderTickMsg drives batched viewport refreshes during streaming.
type renderTickMsg struct {
	at time.Time
}

// sendResultMsg is the outcome of a Send driven from a command goroutine.
type sendResultMsg struct {
	err error
}

// switchResultMsg is the outcome of a model switch.
type switchResultMsg struct {
	modelID string
	err     error
}

// modelsLoadedMsg carries the model catalog after a refresh.
type modelsLoadedMsg struct {
	models []model.ModelInfo
	err    error
}

// reloadResultMsg is the outcome of a transcript reload.
type reloadResultMsg struct {
	err error
}
