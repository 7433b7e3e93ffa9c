package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liminalsalt/salt/model"
)

func newCurator(t *testing.T, m model.Model) (*Curator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ltm.md")
	return NewCurator(m, "test-model", path), path
}

func TestUpdate_WritesDocument(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("<s># User Profile\nA gardener.\n\n# Critical Personal Facts\nAllergic to bees.\n\n# Living Interests & Knowledge\nTomatoes.</s>")

	c, path := newCurator(t, m)
	require.NoError(t, c.Update(context.Background(), "User: I garden a lot\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# User Profile")
	assert.NotContains(t, string(data), "<s>")
}

func TestUpdate_DiscardsDegenerateRewriteSilently(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("ok")

	c, path := newCurator(t, m)
	existing := strings.Repeat("important fact. ", 20)
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	require.NoError(t, c.Update(context.Background(), "User: hello\n"),
		"a degenerate background rewrite is dropped, not surfaced as an error")

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, existing, string(data), "existing document must survive a discarded rewrite")
}

func TestUpdate_AcceptsSmallDocumentWhenStartingFresh(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("# User Profile\nNew here.")

	c, path := newCurator(t, m)
	require.NoError(t, c.Update(context.Background(), "User: hi\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# User Profile\nNew here.", string(data))
}

func TestUpdate_LegacyFormatTriggersRestructureNote(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("# User Profile\nrestructured content here")

	c, path := newCurator(t, m)
	require.NoError(t, os.WriteFile(path, []byte("# Facts & Knowledge Base\n- **Name**: Sam\n"+strings.Repeat("x", 60)), 0o644))

	require.NoError(t, c.Update(context.Background(), "User: hi\n"))

	calls := m.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0].Messages[0].Content
	assert.Contains(t, prompt, "outdated structure")
	assert.Contains(t, prompt, "keeping only knowledge that is specifically about the user")
	assert.Contains(t, prompt, "convert all bullet lists into flowing narrative prose")
}

func TestUpdate_PromptCarriesSectionPolicies(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("# User Profile\nA gardener who grows tomatoes.")

	c, _ := newCurator(t, m)
	require.NoError(t, c.Update(context.Background(), "User: I garden\n"))

	calls := m.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0].Messages[0].Content

	assert.Contains(t, prompt, "neutral third person")
	assert.Contains(t, prompt, "never silently drop an established fact unless")
	assert.Contains(t, prompt, "surprised or upset if it was gone")
	assert.Contains(t, prompt, "core to their identity")
	assert.Contains(t, prompt, "emphasis or emotional weight")
	assert.Contains(t, prompt, "not reinforced over 2-3 updates")
	assert.NotContains(t, prompt, "MIGRATION NOTE",
		"migration directions only appear for legacy documents")
}

func TestUpdate_ModelErrorPropagates(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueError(errors.New("rate limited"))

	c, _ := newCurator(t, m)
	err := c.Update(context.Background(), "User: hi\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curation call")
}

func TestModifyWithCommand_RequiresExistingDocument(t *testing.T) {
	m := model.NewMockModel("test-model")
	c, _ := newCurator(t, m)

	err := c.ModifyWithCommand(context.Background(), "forget my old job")
	assert.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, 0, m.CallCount())
}

func TestModifyWithCommand_AppliesEdit(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("# User Profile\nA retired gardener.")

	c, path := newCurator(t, m)
	require.NoError(t, os.WriteFile(path, []byte("# User Profile\nA gardener."), 0o644))

	require.NoError(t, c.ModifyWithCommand(context.Background(), "note that the user retired"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "retired")

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[0].Content, "note that the user retired")
	assert.Contains(t, calls[0].Messages[0].Content, "A gardener.")
}

func TestModifyWithCommand_RejectsDegenerateResult(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.QueueResponse("ok")

	c, path := newCurator(t, m)
	original := "# User Profile\nA gardener."
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	err := c.ModifyWithCommand(context.Background(), "erase everything")
	assert.ErrorIs(t, err, ErrDegenerateRewrite)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, string(data))
}

func TestWipe_Idempotent(t *testing.T) {
	m := model.NewMockModel("test-model")
	c, path := newCurator(t, m)

	require.NoError(t, os.WriteFile(path, []byte("doc"), 0o644))
	require.NoError(t, c.Wipe())
	assert.False(t, c.Exists())

	require.NoError(t, c.Wipe(), "wiping an absent document must succeed")
}

func TestContent_MissingFileIsEmpty(t *testing.T) {
	m := model.NewMockModel("test-model")
	c, _ := newCurator(t, m)

	content, err := c.Content()
	require.NoError(t, err)
	assert.Equal(t, "", content)
}
