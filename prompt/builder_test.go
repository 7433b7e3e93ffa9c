package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liminalsalt/salt/contextfile"
)

type fixture struct {
	personasDir string
	ltmPath     string
	userStore   *contextfile.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	personasDir := filepath.Join(root, "personas")
	require.NoError(t, os.MkdirAll(filepath.Join(personasDir, "assistant"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(personasDir, "assistant", "a.md"), []byte("identity A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(personasDir, "assistant", "b.md"), []byte("identity B"), 0o644))

	store, err := contextfile.NewStore(filepath.Join(root, "user_context"))
	require.NoError(t, err)
	_, err = store.Upload("facts.md", []byte("the user likes jazz"))
	require.NoError(t, err)

	ltmPath := filepath.Join(root, "long_term_memory.md")
	require.NoError(t, os.WriteFile(ltmPath, []byte("# User Profile\nProse about the user."), 0o644))

	return fixture{personasDir: personasDir, ltmPath: ltmPath, userStore: store}
}

func TestAssemble_SectionOrdering(t *testing.T) {
	fx := newFixture(t)
	b := NewBuilder(fx.personasDir, func(o *BuilderOptions) { o.UserFiles = fx.userStore })

	out := b.Assemble("assistant", fx.ltmPath)

	posA := indexRequired(t, out, "--- SYSTEM INSTRUCTION: a.md ---")
	posB := indexRequired(t, out, "--- SYSTEM INSTRUCTION: b.md ---")
	posCtx := indexRequired(t, out, "--- USER CONTEXT FILES ---")
	posLTM := indexRequired(t, out, "--- USER PROFILE (BACKGROUND KNOWLEDGE) ---")

	assert.Less(t, posA, posB)
	assert.Less(t, posB, posCtx)
	assert.Less(t, posCtx, posLTM)
	assert.Contains(t, out, "identity A")
	assert.Contains(t, out, "the user likes jazz")
	assert.Contains(t, out, "Prose about the user.")
}

func TestAssemble_MissingPersonaDegrades(t *testing.T) {
	fx := newFixture(t)
	b := NewBuilder(fx.personasDir)

	out := b.Assemble("ghost", "")
	assert.Contains(t, out, "--- WARNING: Persona not found ---")
	assert.Contains(t, out, filepath.Join(fx.personasDir, "ghost"))
}

func TestAssemble_NoLTMNoSection(t *testing.T) {
	fx := newFixture(t)
	b := NewBuilder(fx.personasDir)

	out := b.Assemble("assistant", filepath.Join(t.TempDir(), "missing.md"))
	assert.NotContains(t, out, "--- USER PROFILE")
	assert.Contains(t, out, "identity A")
}

func TestAssemble_DisabledFilesExcluded(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.userStore.SetEnabled("facts.md", false))
	b := NewBuilder(fx.personasDir, func(o *BuilderOptions) { o.UserFiles = fx.userStore })

	out := b.Assemble("assistant", "")
	assert.NotContains(t, out, "--- USER CONTEXT FILES ---")
	assert.NotContains(t, out, "jazz")
}

func TestAssemble_PersonaScopedFiles(t *testing.T) {
	fx := newFixture(t)
	personaStore, err := contextfile.NewStore(filepath.Join(t.TempDir(), "assistant"))
	require.NoError(t, err)
	_, err = personaStore.Upload("lore.txt", []byte("persona-scoped lore"))
	require.NoError(t, err)

	b := NewBuilder(fx.personasDir, func(o *BuilderOptions) {
		o.PersonaFiles = func(name string) *contextfile.Store {
			if name == "assistant" {
				return personaStore
			}
			return nil
		}
	})

	out := b.Assemble("assistant", "")
	assert.Contains(t, out, "--- PERSONA CONTEXT FILES ---")
	assert.Contains(t, out, "persona-scoped lore")
}

func TestAssemble_Trimmed(t *testing.T) {
	fx := newFixture(t)
	b := NewBuilder(fx.personasDir)

	out := b.Assemble("assistant", "")
	assert.Equal(t, out, "--- SYSTEM INSTRUCTION: a.md ---\nidentity A\n\n--- SYSTEM INSTRUCTION: b.md ---\nidentity B")
}

func indexRequired(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "missing %q", sub)
	return idx
}
