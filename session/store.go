package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liminalsalt/salt/config"
	"github.com/liminalsalt/salt/logging"
)

// FileStore persists one JSON document per session in a flat directory.
// Filenames are timestamp-prefixed so lexicographic order is recency order;
// listing never needs to parse message logs to sort.
//
// The store assumes a single active writer per session and accepts
// last-write-wins on the rare concurrent save. Writes go through an atomic
// temp-file-then-rename so a crash mid-write never leaves a torn document.
type FileStore struct {
	dir    string
	logger logging.Logger
}

// StoreOptions configures a FileStore.
type StoreOptions struct {
	Logger logging.Logger
}

// NewFileStore opens (creating if needed) a session directory.
func NewFileStore(dir string, optFns ...func(o *StoreOptions)) (*FileStore, error) {
	opts := StoreOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: opts.Logger}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

// NewID derives a fresh session id from the given time. If a session with
// that id already exists (two creations within one second) a short random
// suffix keeps ids unique without breaking sort order.
func (s *FileStore) NewID(now time.Time) string {
	base := fmt.Sprintf("session_%s", now.Format("20060102_150405"))
	id := base + ".json"
	if _, err := os.Stat(filepath.Join(s.dir, id)); err == nil {
		id = fmt.Sprintf("%s_%s.json", base, uuid.NewString()[:8])
	}
	return id
}

// Create allocates a new session bound to the persona and persists its
// initial document immediately so it is visible to listings.
func (s *FileStore) Create(persona string) (*Session, error) {
	sess := &Session{
		ID:       s.NewID(time.Now()),
		Title:    DefaultTitle,
		Persona:  persona,
		Messages: []Message{},
	}
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Info("session created", "session_id", sess.ID, "persona", persona)
	return sess, nil
}

// Load reads a session document. Parse failures return a placeholder session
// labeled as an error rather than an error value, so the rest of the system
// keeps functioning and can render something to the user.
func (s *FileStore) Load(id string) *Session {
	sess := &Session{ID: id, Title: ErrorTitle, Persona: "assistant", Messages: []Message{}, LoadError: true}
	data, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		s.logger.Warn("session read failed", "session_id", id, "error", err)
		return sess
	}
	var decoded Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.logger.Warn("session parse failed", "session_id", id, "error", err)
		return sess
	}
	decoded.ID = id
	return &decoded
}

// Exists reports whether a session file is present.
func (s *FileStore) Exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.dir, id))
	return err == nil
}

// Save overwrites the whole session document atomically. Whole-document
// replace trades write amplification for crash consistency of the one-file
// invariant.
func (s *FileStore) Save(sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session: save without id")
	}
	data, err := json.MarshalIndent(sess, "", "    ")
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", sess.ID, err)
	}
	if err := config.WriteFileAtomic(filepath.Join(s.dir, sess.ID), data); err != nil {
		return fmt.Errorf("session: save %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session file. Deleting a nonexistent session is a no-op.
func (s *FileStore) Delete(id string) error {
	err := os.Remove(filepath.Join(s.dir, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

// List returns every session sorted by id descending (newest first). A
// corrupt file yields an "Error Loading" placeholder entry instead of
// failing the whole listing.
func (s *FileStore) List() []*Session {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("session dir unreadable", "dir", s.dir, "error", err)
		return nil
	}
	var sessions []*Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		sessions = append(sessions, s.Load(e.Name()))
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID > sessions[j].ID })
	return sessions
}

// Grouped is the sidebar-shaped view of the session list: pinned sessions
// surfaced separately, the rest bucketed by persona with buckets ordered by
// the recency of their most-recent session.
type Grouped struct {
	Pinned       []*Session
	PersonaOrder []string
	ByPersona    map[string][]*Session
}

// GroupByPersona splits sessions (already newest-first) into pinned and
// persona buckets. A persona with no recent activity sinks even if it has
// many old sessions.
func GroupByPersona(sessions []*Session) Grouped {
	g := Grouped{ByPersona: map[string][]*Session{}}
	for _, sess := range sessions {
		if sess.Pinned {
			g.Pinned = append(g.Pinned, sess)
			continue
		}
		g.ByPersona[sess.Persona] = append(g.ByPersona[sess.Persona], sess)
	}
	for persona := range g.ByPersona {
		g.PersonaOrder = append(g.PersonaOrder, persona)
	}
	sort.Slice(g.PersonaOrder, func(i, j int) bool {
		// Buckets hold newest-first sessions, so index 0 is the freshest.
		return g.ByPersona[g.PersonaOrder[i]][0].ID > g.ByPersona[g.PersonaOrder[j]][0].ID
	})
	return g
}

// RenamePersona rewrites every session referencing the old persona name.
// Returns the number of sessions updated. Corrupt files are skipped.
func (s *FileStore) RenamePersona(oldName, newName string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("session: read dir: %w", err)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		sess := s.Load(e.Name())
		if sess.LoadError || sess.Persona != oldName {
			continue
		}
		sess.Persona = newName
		if err := s.Save(sess); err != nil {
			s.logger.Error("persona rename skipped session", "session_id", sess.ID, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// AggregateUserContent collects user-role message content across every
// session as "User: <content>" lines for memory curation. Assistant turns are
// excluded: the memory describes the user, and including assistant text risks
// the rewriting model drifting toward describing itself.
//
// Files contribute in directory-listing order (name ascending), messages in
// stored order per file. True chronological interleaving across sessions is
// not attempted.
func (s *FileStore) AggregateUserContent() (string, int) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("session dir unreadable", "dir", s.dir, "error", err)
		return "", 0
	}
	var b strings.Builder
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		sess := s.Load(e.Name())
		if sess.LoadError {
			continue
		}
		for _, m := range sess.Messages {
			if m.Role != RoleUser {
				continue
			}
			b.WriteString("User: ")
			b.WriteString(m.Content)
			b.WriteString("\n")
			count++
		}
	}
	return b.String(), count
}
