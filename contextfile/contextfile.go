// Package contextfile manages user-uploaded markdown/text documents that can
// be toggled in and out of the assembled system prompt. One Store instance
// covers one directory: the global user context directory, or a per-persona
// subdirectory (same model, namespaced per persona).
//
// Filenames are restricted to .md/.txt and stripped of path components
// before touching the filesystem; this is a deliberate security boundary
// against path traversal via uploaded or deleted filenames.
package contextfile

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

// Errors returned by Store operations.
var (
	ErrInvalidFilename = errors.New("contextfile: filename must end in .md or .txt")
	ErrNotFound        = errors.New("contextfile: file not found")
)

const configFile = "config.json"

// Info describes one context file and its enablement state.
type Info struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// File is a loaded context document.
type File struct {
	Name    string
	Content string
}

// storeConfig is the sibling config document keyed by filename.
type storeConfig struct {
	Files map[string]struct {
		Enabled bool `json:"enabled"`
	} `json:"files"`
}

// Store manages the context files of one directory.
type Store struct {
	dir    string
	logger logging.Logger
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Logger logging.Logger
}

// NewStore opens (creating if needed) a context file directory.
func NewStore(dir string, optFns ...func(o *StoreOptions)) (*Store, error) {
	opts := StoreOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("contextfile: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: opts.Logger}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// sanitize strips path components and validates the extension.
func sanitize(filename string) (string, error) {
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) || filename == configFile {
		return "", ErrInvalidFilename
	}
	if !strings.HasSuffix(filename, ".md") && !strings.HasSuffix(filename, ".txt") {
		return "", ErrInvalidFilename
	}
	return filename, nil
}

func (s *Store) loadConfig() storeConfig {
	cfg := storeConfig{Files: map[string]struct {
		Enabled bool `json:"enabled"`
	}{}}
	data, err := os.ReadFile(filepath.Join(s.dir, configFile))
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("context config corrupt", "dir", s.dir, "error", err)
	}
	if cfg.Files == nil {
		cfg.Files = map[string]struct {
			Enabled bool `json:"enabled"`
		}{}
	}
	return cfg
}

func (s *Store) saveConfig(cfg storeConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("contextfile: marshal config: %w", err)
	}
	return config.WriteFileAtomic(filepath.Join(s.dir, configFile), data)
}

// List returns the directory's context files sorted by name with their
// enabled status. Files absent from the config default to enabled.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("contextfile: read dir: %w", err)
	}
	cfg := s.loadConfig()
	var infos []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == configFile {
			continue
		}
		if !strings.HasSuffix(name, ".md") && !strings.HasSuffix(name, ".txt") {
			continue
		}
		enabled := true
		if fc, ok := cfg.Files[name]; ok {
			enabled = fc.Enabled
		}
		infos = append(infos, Info{Name: name, Enabled: enabled})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Upload stores a new context file and registers it as enabled. Returns the
// sanitized filename actually used.
func (s *Store) Upload(filename string, content []byte) (string, error) {
	name, err := sanitize(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("contextfile: write %s: %w", name, err)
	}
	cfg := s.loadConfig()
	cfg.Files[name] = struct {
		Enabled bool `json:"enabled"`
	}{Enabled: true}
	if err := s.saveConfig(cfg); err != nil {
		return "", err
	}
	s.logger.Info("context file uploaded", "file", name, "dir", s.dir)
	return name, nil
}

// Delete removes a context file and its config entry.
func (s *Store) Delete(filename string) error {
	name, err := sanitize(filename)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("contextfile: delete %s: %w", name, err)
	}
	cfg := s.loadConfig()
	if _, ok := cfg.Files[name]; ok {
		delete(cfg.Files, name)
		if err := s.saveConfig(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Toggle flips the enabled status of a file and returns the new state.
// Disabled files are retained on disk but excluded from prompt assembly.
func (s *Store) Toggle(filename string) (bool, error) {
	name, err := sanitize(filename)
	if err != nil {
		return false, err
	}
	cfg := s.loadConfig()
	current := true
	if fc, ok := cfg.Files[name]; ok {
		current = fc.Enabled
	}
	cfg.Files[name] = struct {
		Enabled bool `json:"enabled"`
	}{Enabled: !current}
	if err := s.saveConfig(cfg); err != nil {
		return false, err
	}
	return !current, nil
}

// SetEnabled sets the enabled status of a file explicitly.
func (s *Store) SetEnabled(filename string, enabled bool) error {
	name, err := sanitize(filename)
	if err != nil {
		return err
	}
	cfg := s.loadConfig()
	cfg.Files[name] = struct {
		Enabled bool `json:"enabled"`
	}{Enabled: enabled}
	return s.saveConfig(cfg)
}

// Content returns the content of a context file.
func (s *Store) Content(filename string) (string, error) {
	name, err := sanitize(filename)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", ErrNotFound
	}
	return string(data), nil
}

// SaveContent overwrites an existing context file's content.
func (s *Store) SaveContent(filename, content string) error {
	name, err := sanitize(filename)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// EnabledContents loads every enabled file in name order for prompt assembly.
func (s *Store) EnabledContents() ([]File, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	var files []File
	for _, info := range infos {
		if !info.Enabled {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, info.Name))
		if err != nil {
			s.logger.Warn("context file unreadable", "file", info.Name, "error", err)
			continue
		}
		files = append(files, File{Name: info.Name, Content: string(data)})
	}
	return files, nil
}
