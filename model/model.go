package model

import (
	"context"
	"fmt"
	"sync"
)

// Message is one provider-facing chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized input for one completion call.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openrouter", "anthropic", "mock"
}

// Model is the minimal interface required to drive a completion. Calls are
// synchronous from the caller's point of view; implementations honor the
// context deadline. An empty choices list is an error; an empty-but-present
// completion is returned as "" and left to the caller's retry policy.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests. Responses can
// be keyed by the final message content or queued as a script; scripted
// entries win. All calls are recorded.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []scripted
	calls     []Request
}

type scripted struct {
	text string
	err  error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// QueueResponse appends a scripted completion consumed in FIFO order.
func (m *MockModel) QueueResponse(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{text: text})
}

// QueueError appends a scripted transport failure.
func (m *MockModel) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
}

// Calls returns a copy of every request received so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of Complete invocations.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next.text, next.err
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1].Content
	if resp, ok := m.responses[last]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", last), nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
