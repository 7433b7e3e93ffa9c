package titler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liminalsalt/salt/model"
	"github.com/liminalsalt/salt/session"
)

func TestGenerate_UsesModelResponse(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("Baking Sourdough Bread")

	s := NewSynthesizer(m, "test-model")
	title := s.Generate(context.Background(), "How do I bake sourdough?", "Start with a healthy starter.")

	assert.Equal(t, "Baking Sourdough Bread", title)
	assert.Equal(t, 1, m.CallCount())
}

func TestGenerate_CleansArtifacts(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse(`<s> "Baking   Sourdough Bread." </s>`)

	s := NewSynthesizer(m, "test-model")
	title := s.Generate(context.Background(), "How do I bake sourdough?", "Use a starter.")

	assert.Equal(t, "Baking Sourdough Bread", title)
}

func TestGenerate_EmptyPromptReturnsDefault(t *testing.T) {
	m := model.NewMockModel("test-model")
	s := NewSynthesizer(m, "test-model")

	assert.Equal(t, session.DefaultTitle, s.Generate(context.Background(), "   ", ""))
	assert.Equal(t, 0, m.CallCount())
}

func TestGenerate_ErrorResponseExcludedFromPrompt(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("Garden Planning")

	s := NewSynthesizer(m, "test-model")
	s.Generate(context.Background(), "Plan my garden", "ERROR: model unavailable")

	calls := m.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(calls))
	}
	prompt := calls[0].Messages[len(calls[0].Messages)-1].Content
	assert.NotContains(t, prompt, "ASSISTANT REPLIED")
	assert.Contains(t, prompt, "USER QUESTION")
}

func TestGenerate_FallbackOnModelError(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueError(errors.New("boom"))

	s := NewSynthesizer(m, "test-model")
	title := s.Generate(context.Background(), "Short question", "")

	assert.Equal(t, "Short question", title)
}

func TestGenerate_FallbackTruncatesLongPrompt(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueError(errors.New("boom"))

	long := strings.Repeat("a", 80)
	s := NewSynthesizer(m, "test-model")
	title := s.Generate(context.Background(), long, "")

	assert.Equal(t, strings.Repeat("a", 50)+"...", title)
}

func TestGenerate_RejectsOutOfBoundsTitles(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"too short", "Hi"},
		{"too long", strings.Repeat("x", 60)},
		{"leftover artifact", "Title [1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model.NewMockModel("test-model")
			m.QueueResponse(tt.response)
			s := NewSynthesizer(m, "test-model")

			title := s.Generate(context.Background(), "Some question about things", "answer")
			assert.Equal(t, "Some question about things", title)
		})
	}
}

func TestHasArtifacts(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"", false},
		{session.DefaultTitle, false},
		{"Baking Bread", false},
		{"[INST] Title", true},
		{"Broken <tag>", true},
		{"Heading # here", true},
		{"Two\nlines", true},
		{"SYS leftovers", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasArtifacts(tt.title), "title %q", tt.title)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Hello World", Clean("  <s>'Hello   World!'</s>  "))
	assert.Equal(t, "Plain", Clean("Plain"))
}
