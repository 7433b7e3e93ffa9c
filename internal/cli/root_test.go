package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	expected := []string{"chat", "sessions", "persona", "context", "memory", "models", "setup", "validate"}
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range expected {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "session_20250101_120000.json", normalizeID("session_20250101_120000"))
	assert.Equal(t, "session_20250101_120000.json", normalizeID("session_20250101_120000.json"))
}
