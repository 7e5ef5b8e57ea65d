// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is the service-side record a transcript belongs to.
// An empty ID marks the "new conversation" state: the first send creates
// the record instead of streaming a reply.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Model     string         `json:"model"`
	UserID    string         `json:"user_id,omitempty"`
	Meta      map[string]any `json:"meta_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsNew reports whether the conversation has not been created on the
// service yet.
func (c *Conversation) IsNew() bool {
	return c.ID == ""
}

// UnmarshalJSON accepts either a JSON string or a JSON number for the id
// field, matching the service's mixed id scheme.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	type alias Conversation
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeFlexibleID(aux.ID)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// ConversationUpdate is the partial-update payload for PUT /conversations/{id}.
// Nil fields are omitted from the request body.
type ConversationUpdate struct {
	Title *string        `json:"title,omitempty"`
	Model *string        `json:"model,omitempty"`
	Meta  map[string]any `json:"meta_data,omitempty"`
}

// ConversationDefaults is the payload of GET /conversations/new: what the
// service suggests for a conversation that does not exist yet.
type ConversationDefaults struct {
	DefaultModel    string      `json:"default_model"`
	AvailableModels []ModelInfo `json:"available_models"`
}

// =============================================================================
// MODEL CATALOG
// =============================================================================

// ModelInfo describes one entry in the service's model catalog.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
}

// =============================================================================
// PAGE ENVELOPES
// =============================================================================

// MessagePage is one page of a conversation's message history.
type MessagePage struct {
	Items []Message `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}

// ConversationPage is one page of the conversation list.
type ConversationPage struct {
	Items []Conversation `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// HasMore reports whether pages beyond this one exist.
func (p *MessagePage) HasMore() bool {
	return p.Page*p.Size < p.Total
}

// HasMore reports whether pages beyond this one exist.
func (p *ConversationPage) HasMore() bool {
	return p.Page*p.Size < p.Total
}
