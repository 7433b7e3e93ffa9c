package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPersona, cfg.DefaultPersona)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, DefaultProvider, cfg.Provider)
	assert.ErrorIs(t, cfg.Validate(), ErrNotConfigured)
}

func TestLoad_CorruptFileDegradesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona, cfg.DefaultPersona)
	assert.Empty(t, cfg.APIKey)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	in := &Config{
		APIKey:         "sk-or-test",
		Model:          "anthropic/claude-haiku-4.5",
		DefaultPersona: "mentor",
		HistoryLimit:   25,
		SiteName:       "Liminal Salt",
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in.APIKey, out.APIKey)
	assert.Equal(t, in.Model, out.Model)
	assert.Equal(t, "mentor", out.DefaultPersona)
	assert.Equal(t, 25, out.HistoryLimit)
	assert.NoError(t, out.Validate())
}

func TestLoad_AlwaysFreshFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, &Config{APIKey: "a", Model: "m1"}))

	first, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, &Config{APIKey: "a", Model: "m2"}))

	second, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "m1", first.Model)
	assert.Equal(t, "m2", second.Model)
}

func TestValidate_RequiresBothKeyAndModel(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, true},
		{"key only", Config{APIKey: "k"}, true},
		{"model only", Config{Model: "m"}, true},
		{"complete", Config{APIKey: "k", Model: "m"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrNotConfigured)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
