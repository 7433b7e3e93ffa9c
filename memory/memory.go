// Package memory maintains the long-term memory document: a markdown file
// rewritten by a curation model from the full history of user messages. The
// document is background knowledge injected into the system prompt, never a
// transcript.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/liminalsalt/salt/config"
	"github.com/liminalsalt/salt/logging"
	"github.com/liminalsalt/salt/model"
)

var (
	// ErrNoMemory indicates a modify command was issued before any memory
	// document exists.
	ErrNoMemory = errors.New("memory: no memory file exists yet")

	// ErrDegenerateRewrite indicates an explicit modify command produced a
	// result too small to plausibly be the edited document. The file on
	// disk is left unchanged.
	ErrDegenerateRewrite = errors.New("memory: rewrite rejected as degenerate")
)

// Section headings of the curated document.
var headings = []string{
	"# User Profile",
	"# Critical Personal Facts",
	"# Living Interests & Knowledge",
}

// legacyMarkers identify documents produced by an earlier curation format
// that must be restructured on the next update.
var legacyMarkers = []string{"# Facts & Knowledge Base", "- **"}

// Curator rewrites the long-term memory file through a curation model.
type Curator struct {
	model   model.Model
	modelID string
	path    string
	logger  logging.Logger
}

// Options configures a Curator.
type Options struct {
	Logger logging.Logger
}

// NewCurator builds a Curator writing to the given file path.
func NewCurator(m model.Model, modelID, path string, optFns ...func(o *Options)) *Curator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Curator{model: m, modelID: modelID, path: path, logger: opts.Logger}
}

// Path returns the location of the memory file.
func (c *Curator) Path() string {
	return c.path
}

// Exists reports whether a memory document is present on disk.
func (c *Curator) Exists() bool {
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir()
}

// ModTime returns when the memory document was last written, and whether it
// exists at all.
func (c *Curator) ModTime() (time.Time, bool) {
	info, err := os.Stat(c.path)
	if err != nil || info.IsDir() {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Content returns the current memory document, or the empty string when none
// exists.
func (c *Curator) Content() (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("memory: read %s: %w", c.path, err)
	}
	return string(data), nil
}

// Update rewrites the memory document from the aggregated corpus of user
// messages. The existing document is merged in so established facts survive
// rewrites. A result shorter than a sanity threshold is silently discarded
// when it would replace a substantial document: Update runs in the
// background after a turn, so the existing document is kept and no error is
// surfaced. ModifyWithCommand, which runs on an explicit user command,
// reports the same condition as ErrDegenerateRewrite instead.
func (c *Curator) Update(ctx context.Context, corpus string) error {
	old, err := c.Content()
	if err != nil {
		return err
	}

	prompt := c.updatePrompt(old, corpus)
	raw, err := c.model.Complete(ctx, model.Request{
		Model:    c.modelID,
		Messages: []model.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return fmt.Errorf("memory: curation call: %w", err)
	}

	doc := stripArtifacts(raw)
	if len(doc) < 10 && len(old) > 50 {
		c.logger.Warn("memory update discarded, keeping existing document",
			"new_len", len(doc), "old_len", len(old))
		return nil
	}
	c.validateHeadings(doc)

	if err := config.WriteFileAtomic(c.path, []byte(doc)); err != nil {
		return fmt.Errorf("memory: write %s: %w", c.path, err)
	}
	c.logger.Info("memory document updated", "bytes", len(doc))
	return nil
}

// ModifyWithCommand applies a natural-language edit instruction to the
// existing document. Unlike Update it never sees the message corpus, only
// the current document and the instruction.
func (c *Curator) ModifyWithCommand(ctx context.Context, command string) error {
	if !c.Exists() {
		return ErrNoMemory
	}
	old, err := c.Content()
	if err != nil {
		return err
	}

	prompt := "You maintain a personal memory document for an AI assistant.\n" +
		"Apply the following instruction to the document and return the COMPLETE\n" +
		"updated document. Keep all content not affected by the instruction.\n" +
		"Return ONLY the document text, no commentary.\n\n" +
		"INSTRUCTION: " + command + "\n\n" +
		"CURRENT DOCUMENT:\n" + old

	raw, err := c.model.Complete(ctx, model.Request{
		Model:    c.modelID,
		Messages: []model.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return fmt.Errorf("memory: modify call: %w", err)
	}

	doc := stripArtifacts(raw)
	if len(doc) < 10 {
		c.logger.Warn("memory modify rejected, result too small", "new_len", len(doc))
		return ErrDegenerateRewrite
	}
	c.validateHeadings(doc)

	if err := config.WriteFileAtomic(c.path, []byte(doc)); err != nil {
		return fmt.Errorf("memory: write %s: %w", c.path, err)
	}
	c.logger.Info("memory document modified", "bytes", len(doc))
	return nil
}

// Wipe removes the memory document. Removing an absent document is not an
// error.
func (c *Curator) Wipe() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("memory: wipe %s: %w", c.path, err)
	}
	c.logger.Info("memory document wiped")
	return nil
}

func (c *Curator) updatePrompt(old, corpus string) string {
	var b strings.Builder
	if isLegacyFormat(old) {
		b.WriteString("MIGRATION NOTE: The existing document uses an outdated structure with\n")
		b.WriteString("a 'Facts & Knowledge Base' section or bullet-list formatting. Restructure\n")
		b.WriteString("it into the three narrative sections below: remove the Facts & Knowledge\n")
		b.WriteString("Base section keeping only knowledge that is specifically about the user,\n")
		b.WriteString("convert all bullet lists into flowing narrative prose, and reframe the\n")
		b.WriteString("content to describe the user rather than general facts.\n\n")
	}
	b.WriteString("You are a memory curator for a personal AI assistant. Maintain a living\n")
	b.WriteString("long-term memory document that describes the user as a person, so the\n")
	b.WriteString("assistant understands who it is talking to.\n\n")
	b.WriteString("The document MUST use exactly these three markdown sections:\n")
	for _, h := range headings {
		b.WriteString(h + "\n")
	}
	b.WriteString("\nPERSPECTIVE: Write in neutral third person, like a briefing document.\n")
	b.WriteString("Never write from your own perspective as the memory model ('with me',\n")
	b.WriteString("'to me'). Use natural sentences: 'The user is...', 'They have...'.\n")
	b.WriteString("\nUser Profile: factual and specific. Include only what the user has\n")
	b.WriteString("explicitly shared: work, skills, projects, stated preferences. No\n")
	b.WriteString("inferred personality traits, no vague descriptions. Evolve this section\n")
	b.WriteString("with new insights, but never silently drop an established fact unless\n")
	b.WriteString("the user has contradicted it.\n")
	b.WriteString("\nCritical Personal Facts: permanent anchors written as narrative prose.\n")
	b.WriteString("Relationships, home, work, life goals, health, strongly held values.\n")
	b.WriteString("Once added, a fact stays unless the user explicitly contradicts it.\n")
	b.WriteString("Before removing anything from this section ask: would the user be\n")
	b.WriteString("surprised or upset if it was gone? Is it core to their identity? Did\n")
	b.WriteString("they share it with emphasis or emotional weight? If yes to any, keep it.\n")
	b.WriteString("\nLiving Interests & Knowledge: narrative prose about what currently\n")
	b.WriteString("engages them. Include only knowledge that is about the user, not general\n")
	b.WriteString("facts about the world. An interest not reinforced over 2-3 updates may\n")
	b.WriteString("be dropped; keep interests mentioned repeatedly and give new ones time\n")
	b.WriteString("before deprecating.\n")
	b.WriteString("\nWrite flowing paragraphs, not bullet lists. No timestamps or\n")
	b.WriteString("meta-commentary. Return ONLY the document text, no commentary.\n")
	b.WriteString("\nEXISTING DOCUMENT:\n")
	if old == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(old + "\n")
	}
	b.WriteString("\nUSER MESSAGE LOG:\n")
	b.WriteString(corpus)
	return b.String()
}

// validateHeadings warns about missing sections but never rejects the
// document for them; models routinely merge or retitle sections and the
// document is still usable as background knowledge.
func (c *Curator) validateHeadings(doc string) {
	for _, h := range headings {
		if !strings.Contains(doc, h) {
			c.logger.Warn("memory document missing expected section", "heading", h)
		}
	}
}

func isLegacyFormat(doc string) bool {
	for _, m := range legacyMarkers {
		if strings.Contains(doc, m) {
			return true
		}
	}
	return false
}

func stripArtifacts(s string) string {
	for _, a := range []string{"<s>", "</s>"} {
		s = strings.ReplaceAll(s, a, "")
	}
	return strings.TrimSpace(s)
}
