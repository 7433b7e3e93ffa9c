// Package persona manages the named directories of system-prompt instruction
// files that define an assistant identity. A persona is a folder of markdown
// documents (concatenated lexicographically at prompt-assembly time) plus an
// optional config.json carrying a per-persona model override.
package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/liminalsalt/salt/config"
	"github.com/liminalsalt/salt/logging"
)

// Validation and lifecycle errors returned by the Manager. Callers surface
// these as specific reason strings; no partial mutation happens on any of them.
var (
	ErrInvalidName = errors.New("persona: name must be non-empty letters, numbers and underscores")
	ErrExists      = errors.New("persona: a persona with that name already exists")
	ErrNotFound    = errors.New("persona: not found")
	ErrLastPersona = errors.New("persona: cannot delete the only persona")
)

// configFile is the per-persona settings document inside the persona folder.
const configFile = "config.json"

// personaConfig is the optional per-persona document. Only the model
// override is recognized today.
type personaConfig struct {
	Model string `json:"model,omitempty"`
}

// Manager performs persona CRUD against a base directory.
type Manager struct {
	dir    string
	logger logging.Logger
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Logger logging.Logger
}

// NewManager opens (creating if needed) the personas directory.
func NewManager(dir string, optFns ...func(o *ManagerOptions)) (*Manager, error) {
	opts := ManagerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persona: mkdir %s: %w", dir, err)
	}
	return &Manager{dir: dir, logger: opts.Logger}, nil
}

// Dir returns the directory holding the named persona's instruction files.
func (m *Manager) Dir(name string) string {
	return filepath.Join(m.dir, filepath.Base(name))
}

// ValidName reports whether name is acceptable for a persona folder.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// List returns the available personas sorted by name. Only directories
// containing at least one instruction document count.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("persona: read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(m.dir, e.Name()))
		if err != nil {
			m.logger.Warn("persona dir unreadable", "persona", e.Name(), "error", err)
			continue
		}
		for _, f := range files {
			if strings.HasSuffix(f.Name(), ".md") {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether the persona directory is present.
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.Dir(name))
	return err == nil && info.IsDir()
}

// Create makes a new persona folder seeded with an identity.md holding the
// given instruction content.
func (m *Manager) Create(name, content string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	if m.Exists(name) {
		return ErrExists
	}
	dir := m.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persona: create %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "identity.md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("persona: write identity: %w", err)
	}
	m.logger.Info("persona created", "persona", name)
	return nil
}

// Rename moves the persona folder. Session references and the default
// persona pointer are the caller's responsibility to propagate.
func (m *Manager) Rename(oldName, newName string) error {
	if !ValidName(newName) {
		return ErrInvalidName
	}
	if !m.Exists(oldName) {
		return ErrNotFound
	}
	if m.Exists(newName) {
		return ErrExists
	}
	if err := os.Rename(m.Dir(oldName), m.Dir(newName)); err != nil {
		return fmt.Errorf("persona: rename %s to %s: %w", oldName, newName, err)
	}
	m.logger.Info("persona renamed", "from", oldName, "to", newName)
	return nil
}

// Delete removes a persona folder. Deleting the last remaining persona is
// forbidden: at least one persona must exist at all times.
func (m *Manager) Delete(name string) error {
	if !m.Exists(name) {
		return ErrNotFound
	}
	names, err := m.List()
	if err != nil {
		return err
	}
	if len(names) <= 1 {
		return ErrLastPersona
	}
	if err := os.RemoveAll(m.Dir(name)); err != nil {
		return fmt.Errorf("persona: delete %s: %w", name, err)
	}
	m.logger.Info("persona deleted", "persona", name)
	return nil
}

// ModelOverride returns the persona's configured model override, or "" when
// the persona has none (missing or unreadable config included).
func (m *Manager) ModelOverride(name string) string {
	data, err := os.ReadFile(filepath.Join(m.Dir(name), configFile))
	if err != nil {
		return ""
	}
	var pc personaConfig
	if err := json.Unmarshal(data, &pc); err != nil {
		m.logger.Warn("persona config corrupt", "persona", name, "error", err)
		return ""
	}
	return pc.Model
}

// SetModelOverride writes (or clears, with "") the persona's model override.
func (m *Manager) SetModelOverride(name, model string) error {
	if !m.Exists(name) {
		return ErrNotFound
	}
	data, err := json.MarshalIndent(personaConfig{Model: model}, "", "  ")
	if err != nil {
		return fmt.Errorf("persona: marshal config: %w", err)
	}
	return config.WriteFileAtomic(filepath.Join(m.Dir(name), configFile), data)
}

// InstructionFiles lists the persona's markdown instruction documents in
// lexicographic order.
func (m *Manager) InstructionFiles(name string) ([]string, error) {
	entries, err := os.ReadDir(m.Dir(name))
	if err != nil {
		return nil, ErrNotFound
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// InstructionContent returns the name and content of the persona's first
// instruction file, mirroring the settings editor which edits one document.
func (m *Manager) InstructionContent(name string) (string, string, error) {
	files, err := m.InstructionFiles(name)
	if err != nil {
		return "", "", err
	}
	if len(files) == 0 {
		return "", "", fmt.Errorf("persona: %s has no instruction files", name)
	}
	data, err := os.ReadFile(filepath.Join(m.Dir(name), files[0]))
	if err != nil {
		return "", "", fmt.Errorf("persona: read %s: %w", files[0], err)
	}
	return files[0], string(data), nil
}

// SaveInstructionContent overwrites the persona's first instruction file.
func (m *Manager) SaveInstructionContent(name, content string) error {
	files, err := m.InstructionFiles(name)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("persona: %s has no instruction files", name)
	}
	return os.WriteFile(filepath.Join(m.Dir(name), files[0]), []byte(content), 0o644)
}
