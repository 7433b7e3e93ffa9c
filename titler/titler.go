// Package titler derives short human-readable session titles from the first
// exchange of a conversation. Title generation is always a best-effort
// enhancement: any failure, artifact or rejection falls back to a truncated
// copy of the user's prompt, never an error to the caller.
package titler

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/liminalsalt/salt/logging"
	"github.com/liminalsalt/salt/model"
	"github.com/liminalsalt/salt/session"
)

// Bounds accepted for a generated title, in runes.
const (
	minLength = 3
	maxLength = 50
)

// artifacts are known model-control tokens stripped from raw completions.
var artifacts = []string{"<s>", "</s>", "[INST]", "[/INST]", "<<SYS>>", "<</SYS>>", "###", "Prompt"}

// badPatterns mark a title as malformed when present.
var badPatterns = []string{"[", "]", "<", ">", "#", "\n", "Prompt", "INST", "SYS"}

// Synthesizer generates session titles through a summarization model call.
type Synthesizer struct {
	model   model.Model
	modelID string
	logger  logging.Logger
}

// Options configures a Synthesizer.
type Options struct {
	Logger logging.Logger
}

// NewSynthesizer builds a Synthesizer using the given model and model id.
func NewSynthesizer(m model.Model, modelID string, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Synthesizer{model: m, modelID: modelID, logger: opts.Logger}
}

// Generate derives a title from the first exchange. The prompt shown to the
// summarization model includes the assistant response only when one usable
// (non-error, non-empty) response exists.
func (s *Synthesizer) Generate(ctx context.Context, userPrompt, assistantResponse string) string {
	if strings.TrimSpace(userPrompt) == "" {
		return session.DefaultTitle
	}

	useResponse := strings.TrimSpace(assistantResponse) != "" &&
		!strings.HasPrefix(assistantResponse, session.ErrorPrefix)

	var prompt string
	if useResponse {
		prompt = "Generate a very short, 2-5 word title for a chat session.\n" +
			"Rules:\n" +
			"- NO quotes, punctuation, or special characters\n" +
			"- NO model tokens like [INST], </s>, <s>\n" +
			"- Just the plain title text\n" +
			"- Be descriptive but concise\n\n" +
			"USER ASKED: " + truncate(userPrompt, 200) + "\n" +
			"ASSISTANT REPLIED: " + truncate(assistantResponse, 200) + "\n\n" +
			"TITLE:"
	} else {
		prompt = "Generate a very short, 2-5 word title that captures the essence of this question.\n" +
			"Rules:\n" +
			"- NO quotes, punctuation, or special characters\n" +
			"- NO model tokens\n" +
			"- Just the plain title text\n\n" +
			"USER QUESTION: " + truncate(userPrompt, 200) + "\n\n" +
			"TITLE:"
	}

	raw, err := s.model.Complete(ctx, model.Request{
		Model:    s.modelID,
		Messages: []model.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		s.logger.Warn("title generation failed", "error", err)
		return Fallback(userPrompt)
	}

	title := Clean(raw)
	if n := utf8.RuneCountInString(title); n < minLength || n > maxLength || HasArtifacts(title) {
		s.logger.Debug("generated title rejected", "title", title)
		return Fallback(userPrompt)
	}
	return title
}

// Clean removes known model artifacts and formatting from a raw title:
// control tokens, enclosing quotes, collapsed whitespace, trailing
// punctuation.
func Clean(title string) string {
	for _, a := range artifacts {
		title = strings.ReplaceAll(title, a, "")
	}
	title = strings.ReplaceAll(title, `"`, "")
	title = strings.ReplaceAll(title, "'", "")
	title = strings.Join(strings.Fields(title), " ")
	title = strings.TrimRight(title, ".:;,!?")
	return strings.TrimSpace(title)
}

// HasArtifacts reports whether a stored title needs regeneration. The
// placeholder and empty titles are not considered malformed; they are
// handled by the earlier tiers.
func HasArtifacts(title string) bool {
	if title == "" || title == session.DefaultTitle {
		return false
	}
	for _, p := range badPatterns {
		if strings.Contains(title, p) {
			return true
		}
	}
	return false
}

// Fallback builds the truncated-prompt title used whenever generation cannot
// produce an acceptable result.
func Fallback(userPrompt string) string {
	if utf8.RuneCountInString(userPrompt) <= maxLength {
		return userPrompt
	}
	return truncate(userPrompt, maxLength) + "..."
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
