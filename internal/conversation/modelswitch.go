// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// SwitchModel moves the active conversation to another model.
//
// The dedicated model endpoint is tried first. If it fails, the fallback
// path applies a generic conversation update followed by a service-side
// reset. Either way a successful switch ends with a transcript reload, so
// the view always matches what the service will use for the next send.
//
// The operation is atomic from the caller's perspective: on any failure
// the previously visible model stays in place, and when the fallback path
// fails the error reported is the primary endpoint's, since that is the
// failure that matters for diagnosis.
func (c *Controller) SwitchModel(ctx context.Context, modelID string) error {
	if modelID == "" {
		return &api.ValidationError{Field: "model", Reason: "no model selected"}
	}
	if c.validateModel != nil {
		if err := c.validateModel(modelID); err != nil {
			return err
		}
	}

	if err := c.claim(); err != nil {
		return err
	}
	defer c.release()

	prev := c.Conversation()

	// Nothing exists server-side yet; the choice is recorded locally and
	// used when the conversation is created.
	if prev.IsNew() {
		next := prev
		next.Model = modelID
		c.setConv(next)
		return nil
	}

	if modelID == prev.Model {
		return nil
	}

	updated, primaryErr := c.backend.UpdateConversationModel(ctx, prev.ID, modelID)
	if primaryErr == nil {
		c.setConv(*updated)
		if err := c.LoadTranscript(ctx); err != nil {
			c.setConv(prev)
			return err
		}
		return nil
	}

	// Fallback: generic update plus reset. Every failure on this path
	// reports the primary error.
	m := modelID
	fallback, err := c.backend.UpdateConversation(ctx, prev.ID, model.ConversationUpdate{Model: &m})
	if err != nil {
		return primaryErr
	}
	if err := c.backend.ResetConversation(ctx, prev.ID); err != nil {
		return primaryErr
	}
	c.setConv(*fallback)
	if err := c.LoadTranscript(ctx); err != nil {
		c.setConv(prev)
		return primaryErr
	}
	return nil
}
