package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func TestCreateListDelete(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Create("assistant", "You are a helpful assistant."))
	require.NoError(t, m.Create("mentor", "You are a patient mentor."))

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"assistant", "mentor"}, names)

	require.NoError(t, m.Delete("mentor"))
	names, err = m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"assistant"}, names)
}

func TestDelete_LastPersonaForbidden(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("assistant", "x"))

	assert.ErrorIs(t, m.Delete("assistant"), ErrLastPersona)
	assert.True(t, m.Exists("assistant"))
}

func TestCreate_Validation(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("assistant", "x"))

	assert.ErrorIs(t, m.Create("", "x"), ErrInvalidName)
	assert.ErrorIs(t, m.Create("bad name!", "x"), ErrInvalidName)
	assert.ErrorIs(t, m.Create("../evil", "x"), ErrInvalidName)
	assert.ErrorIs(t, m.Create("assistant", "x"), ErrExists)
}

func TestRename(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("sage", "wise words"))

	require.NoError(t, m.Rename("sage", "oracle"))
	assert.False(t, m.Exists("sage"))
	assert.True(t, m.Exists("oracle"))

	_, content, err := m.InstructionContent("oracle")
	require.NoError(t, err)
	assert.Equal(t, "wise words", content)

	assert.ErrorIs(t, m.Rename("missing", "x"), ErrNotFound)
	require.NoError(t, m.Create("other", "y"))
	assert.ErrorIs(t, m.Rename("other", "oracle"), ErrExists)
}

func TestModelOverride(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("assistant", "x"))

	assert.Empty(t, m.ModelOverride("assistant"))
	require.NoError(t, m.SetModelOverride("assistant", "openai/gpt-4o-mini"))
	assert.Equal(t, "openai/gpt-4o-mini", m.ModelOverride("assistant"))

	require.NoError(t, m.SetModelOverride("assistant", ""))
	assert.Empty(t, m.ModelOverride("assistant"))
	assert.ErrorIs(t, m.SetModelOverride("nope", "m"), ErrNotFound)
}

func TestModelOverride_CorruptConfigIgnored(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("assistant", "x"))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir("assistant"), "config.json"), []byte("{oops"), 0o644))

	assert.Empty(t, m.ModelOverride("assistant"))
}

func TestList_IgnoresDirsWithoutInstructions(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("assistant", "x"))
	require.NoError(t, os.MkdirAll(m.Dir("emptydir"), 0o755))

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"assistant"}, names)
}

func TestInstructionFiles_LexicographicOrder(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("assistant", "first"))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir("assistant"), "aa_style.md"), []byte("style"), 0o644))

	files, err := m.InstructionFiles("assistant")
	require.NoError(t, err)
	assert.Equal(t, []string{"aa_style.md", "identity.md"}, files)

	// The first file is what the editor reads and writes.
	name, content, err := m.InstructionContent("assistant")
	require.NoError(t, err)
	assert.Equal(t, "aa_style.md", name)
	assert.Equal(t, "style", content)

	require.NoError(t, m.SaveInstructionContent("assistant", "new style"))
	_, content, err = m.InstructionContent("assistant")
	require.NoError(t, err)
	assert.Equal(t, "new style", content)
}
