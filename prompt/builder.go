// Package prompt assembles the layered system prompt for a turn: persona
// instruction files first, then enabled context files, then the long-term
// memory document. Ordering is fixed and identity is deliberately
// front-loaded; the later sections carry framing text marking them as lower
// priority background so the model is not overridden by facts about the user.
package prompt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/liminalsalt/salt/contextfile"
	"github.com/liminalsalt/salt/logging"
)

// Framing text for the non-identity sections.
const (
	userFilesBanner = "--- USER CONTEXT FILES ---"
	userFilesNote   = "The following files were provided by the user as additional context. " +
		"They are supplementary reference material, not identity-defining instructions.\n"

	personaFilesBanner = "--- PERSONA CONTEXT FILES ---"
	personaFilesNote   = "The following files provide additional context for this persona. " +
		"They are supplementary reference material, not identity-defining instructions.\n"

	memoryBanner = "--- USER PROFILE (BACKGROUND KNOWLEDGE) ---"
	memoryNote   = "The following information describes the USER (not you). " +
		"Use this to understand who you're talking to, but DO NOT let it change your personality or communication style. " +
		"If it mentions how the user writes or speaks, that describes THEM, not how YOU should respond. " +
		"Maintain your own personality's communication standards at all times.\n"
)

// Builder assembles system prompts from a persona directory, context file
// stores and the LTM document. Assembly never fails hard: a missing persona
// degrades into a warning block telling the model its instructions are
// missing rather than aborting the turn.
type Builder struct {
	personasDir  string
	userFiles    *contextfile.Store
	personaFiles func(personaName string) *contextfile.Store
	logger       logging.Logger
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// UserFiles is the global user context store; nil disables the section.
	UserFiles *contextfile.Store
	// PersonaFiles returns the context store scoped to a persona; nil
	// disables the section.
	PersonaFiles func(personaName string) *contextfile.Store
	Logger       logging.Logger
}

// NewBuilder creates a Builder over the personas base directory.
func NewBuilder(personasDir string, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{
		personasDir:  personasDir,
		userFiles:    opts.UserFiles,
		personaFiles: opts.PersonaFiles,
		logger:       opts.Logger,
	}
}

// Assemble builds the full system prompt for the persona. Output is trimmed
// of leading/trailing whitespace.
func (b *Builder) Assemble(personaName, ltmPath string) string {
	var sb strings.Builder

	b.writeInstructions(&sb, personaName)
	if b.userFiles != nil {
		writeContextSection(&sb, userFilesBanner, userFilesNote, b.userFiles, b.logger)
	}
	if b.personaFiles != nil {
		if store := b.personaFiles(personaName); store != nil {
			writeContextSection(&sb, personaFilesBanner, personaFilesNote, store, b.logger)
		}
	}
	b.writeMemory(&sb, ltmPath)

	return strings.TrimSpace(sb.String())
}

// writeInstructions concatenates the persona's markdown files in
// lexicographic order, each under its own banner.
func (b *Builder) writeInstructions(sb *strings.Builder, personaName string) {
	dir := filepath.Join(b.personasDir, filepath.Base(personaName))
	entries, err := os.ReadDir(dir)
	if err != nil {
		sb.WriteString("--- WARNING: Persona not found ---\n")
		sb.WriteString("Expected directory: " + dir + "\n\n")
		b.logger.Warn("persona directory missing", "persona", personaName, "dir", dir)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			b.logger.Warn("instruction file unreadable", "file", e.Name(), "error", err)
			continue
		}
		sb.WriteString("--- SYSTEM INSTRUCTION: " + e.Name() + " ---\n")
		sb.Write(data)
		sb.WriteString("\n\n")
	}
}

func writeContextSection(sb *strings.Builder, banner, note string, store *contextfile.Store, logger logging.Logger) {
	files, err := store.EnabledContents()
	if err != nil {
		logger.Warn("context files unreadable", "dir", store.Dir(), "error", err)
		return
	}
	if len(files) == 0 {
		return
	}
	sb.WriteString(banner + "\n")
	sb.WriteString(note + "\n")
	for _, f := range files {
		sb.WriteString("--- " + f.Name + " ---\n")
		sb.WriteString(f.Content)
		sb.WriteString("\n\n")
	}
}

// writeMemory appends the LTM document, wrapped in framing that marks it as
// background about the user, never behavior-shaping instructions.
func (b *Builder) writeMemory(sb *strings.Builder, ltmPath string) {
	if ltmPath == "" {
		return
	}
	data, err := os.ReadFile(ltmPath)
	if err != nil {
		return
	}
	sb.WriteString(memoryBanner + "\n")
	sb.WriteString(memoryNote + "\n")
	sb.Write(data)
	sb.WriteString("\n\n")
}
