// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a message typed by the person at the keyboard.
	RoleUser Role = "user"

	// RoleAssistant is a reply produced by the dialog service.
	RoleAssistant Role = "assistant"

	// RoleSystem is reserved for service-injected notices.
	RoleSystem Role = "system"
)

// Valid reports whether the role is one the client understands.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single transcript entry.
//
// Client-originated messages carry a UUID until the service persists them
// and assigns its own identifier; server-originated messages keep whatever
// identifier the service returns. Content on an assistant message grows
// while a reply streams in.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`

	// Pending marks an optimistic record the service has not yet
	// acknowledged. Pending messages are removed on send failure.
	Pending bool `json:"-"`
}

// NewUserMessage builds an optimistic user message ready to append to the
// transcript before the network call is made.
func NewUserMessage(conversationID, content string) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
		Pending:        true,
	}
}

// NewAssistantPlaceholder builds the empty assistant message that streamed
// chunks are appended to once the service acknowledges a send.
func NewAssistantPlaceholder(conversationID string) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleAssistant,
		CreatedAt:      time.Now(),
		Pending:        true,
	}
}

// Empty reports whether the message carries no visible content.
func (m *Message) Empty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// Preview returns a single-line prefix of the content, rune-safe, suitable
// for list views and window titles.
func (m *Message) Preview(maxRunes int) string {
	line := m.Content
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) <= maxRunes {
		return line
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// UnmarshalJSON accepts either a JSON string or a JSON number for the id
// field. The dialog service assigns integer ids to persisted messages while
// the client mints string UUIDs for optimistic ones.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeFlexibleID(aux.ID)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// decodeFlexibleID converts a raw JSON id (string, number, or absent) to
// its string form.
func decodeFlexibleID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// FormatMessageCount renders a message total for status lines.
func FormatMessageCount(n int) string {
	if n == 1 {
		return "1 message"
	}
	return strconv.Itoa(n) + " messages"
}
