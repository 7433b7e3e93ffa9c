// Package config manages the global JSON configuration document.
//
// The configuration is deliberately re-read from disk at the start of every
// operation that needs it rather than cached in a singleton. Settings changes
// therefore take effect on the very next request without a restart. Saves
// flush and fsync before returning so a crash immediately after a settings
// change cannot lose the write.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotConfigured indicates required settings (API key, model) are missing
// and the caller should direct the user to setup instead of proceeding.
var ErrNotConfigured = errors.New("config: api key or model not configured")

// Default values applied when the config document omits a field.
const (
	DefaultPersona      = "assistant"
	DefaultHistoryLimit = 50
	DefaultProvider     = "openrouter"
)

// Config is the process-wide settings document. Every field has an explicit
// default so legacy or partial documents decode without error.
type Config struct {
	APIKey         string `json:"OPENROUTER_API_KEY"`
	Model          string `json:"MODEL"`
	Provider       string `json:"PROVIDER,omitempty"` // "openrouter" (default) or "anthropic"
	SiteURL        string `json:"SITE_URL,omitempty"`
	SiteName       string `json:"SITE_NAME,omitempty"`
	DefaultPersona string `json:"DEFAULT_PERSONA"`
	HistoryLimit   int    `json:"MAX_HISTORY"`
	UserTimezone   string `json:"USER_TIMEZONE,omitempty"`
	AssistantTZ    string `json:"ASSISTANT_TIMEZONE,omitempty"`
}

// applyDefaults fills zero-valued fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.DefaultPersona == "" {
		c.DefaultPersona = DefaultPersona
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
}

// Validate reports whether the configuration is complete enough to serve a
// turn. A missing API key or model is the "needs setup" condition.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.Model == "" {
		return ErrNotConfigured
	}
	return nil
}

// Load reads the configuration document fresh from disk. A missing file
// yields a default-initialized Config, not an error; a corrupt file is
// treated the same way so the caller can always render something.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		// Corrupt config degrades to defaults rather than blocking startup.
		*cfg = Config{}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration atomically: temp file, flush, fsync, rename.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to a sibling temp file, syncs it and renames it
// over the target so readers never observe a half-written document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("config: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("config: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// WriteFileAtomic exposes the atomic-replace write for sibling packages that
// persist their own JSON documents with the same crash-consistency contract.
func WriteFileAtomic(path string, data []byte) error {
	return writeFileAtomic(path, data)
}
