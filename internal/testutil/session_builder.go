package testutil

import (
	"github.com/liminalsalt/salt/session"
)

// SessionBuilder provides a fluent helper for constructing sessions in tests.
// Example:
//
//	sess := NewSessionBuilder("session_20250101_120000.json").
//		Persona("assistant").
//		UserText("hello").
//		AssistantText("hi there").
//		Build()
//
// Chain only the parts you need; sensible defaults are applied.
type SessionBuilder struct {
	id       string
	title    string
	persona  string
	pinned   bool
	draft    string
	messages []session.Message
}

// NewSessionBuilder creates a builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{
		id:      id,
		title:   session.DefaultTitle,
		persona: "assistant",
	}
}

// Title sets the session title (chainable).
func (b *SessionBuilder) Title(t string) *SessionBuilder { b.title = t; return b }

// Persona sets the bound persona (chainable).
func (b *SessionBuilder) Persona(p string) *SessionBuilder { b.persona = p; return b }

// Pinned marks the session pinned (chainable).
func (b *SessionBuilder) Pinned() *SessionBuilder { b.pinned = true; return b }

// Draft sets unsent input (chainable).
func (b *SessionBuilder) Draft(d string) *SessionBuilder { b.draft = d; return b }

// UserText appends a user message (chainable).
func (b *SessionBuilder) UserText(t string) *SessionBuilder {
	b.messages = append(b.messages, session.NewMessage(session.RoleUser, t))
	return b
}

// AssistantText appends an assistant message (chainable).
func (b *SessionBuilder) AssistantText(t string) *SessionBuilder {
	b.messages = append(b.messages, session.NewMessage(session.RoleAssistant, t))
	return b
}

// Exchange appends a user/assistant pair (chainable).
func (b *SessionBuilder) Exchange(userText, assistantText string) *SessionBuilder {
	return b.UserText(userText).AssistantText(assistantText)
}

// Build materializes the session.
func (b *SessionBuilder) Build() *session.Session {
	return &session.Session{
		ID:       b.id,
		Title:    b.title,
		Persona:  b.persona,
		Pinned:   b.pinned,
		Draft:    b.draft,
		Messages: b.messages,
	}
}
