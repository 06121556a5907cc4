// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/sentinel-syx/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Flags are the per-turn modes the user chose when submitting.
type Flags struct {
	UseInternet bool `json:"use_internet,omitempty" yaml:"use_internet,omitempty"`
	UseDocument bool `json:"use_document,omitempty" yaml:"use_document,omitempty"`
}

// Message is a single entry of the visible conversation. Messages are
// values and are never modified after creation.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	Flags `yaml:",inline"`
}

// NewMessage creates a message stamped with the current time and a
// time-ordered ID.
func NewMessage(role Role, content string, flags Flags) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Flags:     flags,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string, flags Flags) Message {
	return NewMessage(RoleUser, content, flags)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string, flags Flags) Message {
	return NewMessage(RoleAssistant, content, flags)
}

// Turn projects the message onto the wire shape, dropping ID, time and flags.
func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content}
}

// Preview returns a single-line preview at most maxWidth columns wide.
func (m Message) Preview(maxWidth int) string {
	return util.TruncateWidth(util.OneLine(m.Content), maxWidth)
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one role-tagged message as sent to the completion endpoint.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn builds a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// Credentials are the user-supplied vendor keys. Either may be empty.
type Credentials struct {
	CompletionKey string
	SearchKey     string
}

// HasCompletionKey reports whether a completion key is configured.
func (c Credentials) HasCompletionKey() bool {
	return c.CompletionKey != ""
}

// HasSearchKey reports whether a search key is configured.
func (c Credentials) HasSearchKey() bool {
	return c.SearchKey != ""
}

// generateID returns a UUIDv7, which sorts by creation time.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
