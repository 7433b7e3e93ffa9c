package contextfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestUploadListDelete(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Upload("notes.md", []byte("some notes"))
	require.NoError(t, err)
	assert.Equal(t, "notes.md", name)

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, Info{Name: "notes.md", Enabled: true}, infos[0])

	require.NoError(t, s.Delete("notes.md"))
	infos, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
	assert.ErrorIs(t, s.Delete("notes.md"), ErrNotFound)
}

func TestUpload_SanitizesPathComponents(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Upload("../../etc/passwd.txt", []byte("nope"))
	require.NoError(t, err)
	assert.Equal(t, "passwd.txt", name)

	content, err := s.Content("passwd.txt")
	require.NoError(t, err)
	assert.Equal(t, "nope", content)
}

func TestUpload_RejectsBadExtensions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Upload("script.sh", []byte("#!/bin/sh"))
	assert.ErrorIs(t, err, ErrInvalidFilename)
	_, err = s.Upload("config.json", []byte("{}"))
	assert.ErrorIs(t, err, ErrInvalidFilename)
}

func TestToggle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Upload("a.md", []byte("a"))
	require.NoError(t, err)

	enabled, err := s.Toggle("a.md")
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = s.Toggle("a.md")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestEnabledContents_SkipsDisabled(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Upload("a.md", []byte("alpha"))
	require.NoError(t, err)
	_, err = s.Upload("b.txt", []byte("beta"))
	require.NoError(t, err)
	require.NoError(t, s.SetEnabled("a.md", false))

	files, err := s.EnabledContents()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Name)
	assert.Equal(t, "beta", files[0].Content)
}

func TestSaveContent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Upload("a.md", []byte("old"))
	require.NoError(t, err)

	require.NoError(t, s.SaveContent("a.md", "new"))
	content, err := s.Content("a.md")
	require.NoError(t, err)
	assert.Equal(t, "new", content)

	assert.ErrorIs(t, s.SaveContent("missing.md", "x"), ErrNotFound)
}

func TestList_ExcludesConfigFile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Upload("a.md", []byte("x"))
	require.NoError(t, err)
	// Uploading created config.json alongside; it must never be listed.
	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "a.md", infos[0].Name)
}
