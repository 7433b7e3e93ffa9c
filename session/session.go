package session

import (
	"encoding/json"
	"time"
)

// Message roles and sentinel values shared across the module.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// DefaultTitle is assigned to every new session until synthesized.
	DefaultTitle = "New Chat"
	// LegacyTitle labels pre-structured session files (bare message arrays).
	LegacyTitle = "Old Session"
	// ErrorTitle labels sessions whose file could not be parsed at all.
	ErrorTitle = "Error Loading"

	// ErrorPrefix marks an assistant message recording a failed turn. Failed
	// turns stay in the transcript; they are excluded from memory curation
	// and from title synthesis usability checks.
	ErrorPrefix = "ERROR:"
)

// TimestampFormat is the ISO-8601 layout used for message timestamps.
const TimestampFormat = "2006-01-02T15:04:05Z"

// Message is one transcript entry. Immutable once appended.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewMessage builds a message stamped with the current UTC time.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC().Format(TimestampFormat)}
}

// IsError reports whether the message records a failed turn.
func (m Message) IsError() bool {
	return len(m.Content) >= len(ErrorPrefix) && m.Content[:len(ErrorPrefix)] == ErrorPrefix
}

// Session is one conversation thread bound to a persona.
//
// Contract:
//   - ID is the storage filename; lexicographic order equals recency order
//   - Messages are append-only from the engine's perspective
//   - A session document always deserializes to at least title, persona and
//     messages; missing fields take the documented defaults
//   - Clone performs deep copies of the message slice for safe divergence
type Session struct {
	ID       string    `json:"-"`
	Title    string    `json:"title"`
	Persona  string    `json:"persona"`
	Pinned   bool      `json:"pinned,omitempty"`
	Draft    string    `json:"draft,omitempty"`
	Messages []Message `json:"messages"`

	// LoadError marks a placeholder produced for an unparsable file. It is
	// never persisted.
	LoadError bool `json:"-"`
}

// Append adds a message to the in-memory transcript. Durability requires a
// subsequent Save; the two-phase split lets the engine build up state before
// a single whole-document write.
func (s *Session) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// FirstUserMessage returns the content of the earliest user message, or "".
func (s *Session) FirstUserMessage() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	return &clone
}

// UnmarshalJSON decodes a session document defensively. Structured documents
// take their stored fields with defaults for anything missing; legacy files
// holding a bare message array become an "Old Session" bound to the default
// persona. It never fails on unknown fields.
func (s *Session) UnmarshalJSON(data []byte) error {
	type document struct {
		Title    *string   `json:"title"`
		Persona  *string   `json:"persona"`
		Pinned   bool      `json:"pinned"`
		Draft    string    `json:"draft"`
		Messages []Message `json:"messages"`
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil {
		s.Title = DefaultTitle
		if doc.Title != nil {
			s.Title = *doc.Title
		}
		s.Persona = "assistant"
		if doc.Persona != nil {
			s.Persona = *doc.Persona
		}
		s.Pinned = doc.Pinned
		s.Draft = doc.Draft
		s.Messages = doc.Messages
		if s.Messages == nil {
			s.Messages = []Message{}
		}
		return nil
	}

	// Legacy format: the file is a raw message array.
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	s.Title = LegacyTitle
	s.Persona = "assistant"
	s.Messages = msgs
	return nil
}
