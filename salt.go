// Package salt provides a high-level façade over the chat engine and its
// services (sessions, personas, context files, long-term memory). Most
// applications interact with this package by:
//  1. Creating an App via New() (optionally overriding the data directory)
//  2. Ensuring configuration with Config()/SaveConfig()
//  3. Driving conversations with SendTurn() and the session operations
//
// The façade delegates turn execution to engine.Engine while keeping setup
// and wiring concise. Configuration is re-read from disk on every operation
// so settings changes take effect immediately.
package salt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/liminalsalt/salt/config"
	"github.com/liminalsalt/salt/contextfile"
	"github.com/liminalsalt/salt/engine"
	"github.com/liminalsalt/salt/logging"
	"github.com/liminalsalt/salt/memory"
	"github.com/liminalsalt/salt/model"
	anthropicmodel "github.com/liminalsalt/salt/model/anthropic"
	"github.com/liminalsalt/salt/model/openrouter"
	"github.com/liminalsalt/salt/persona"
	"github.com/liminalsalt/salt/prompt"
	"github.com/liminalsalt/salt/session"
	"github.com/liminalsalt/salt/titler"
)

// Operation deadlines. Turns get generous room for slow models; background
// calls (titles, memory curation) are kept short so they never stall the UI.
const (
	turnTimeout = 120 * time.Second
	auxTimeout  = 30 * time.Second
)

// ErrDefaultPersona indicates an attempt to delete the persona that sessions
// would be reassigned to.
var ErrDefaultPersona = errors.New("salt: cannot delete the default persona")

// ModelFactory builds the chat model for a turn. Tests substitute mocks here.
type ModelFactory func(cfg *config.Config) model.Model

// Options configures the App instance.
type Options struct {
	// Logger defaults to a NoOp logger if nil.
	Logger logging.Logger

	// ModelFactory overrides provider selection, primarily for tests.
	ModelFactory ModelFactory

	// RetryDelay is the pause between model call attempts.
	RetryDelay time.Duration

	// Now supplies the clock for timestamps and time context.
	Now func() time.Time
}

// App is the high-level façade aggregating the engine and its services.
type App struct {
	dataDir string
	logger  logging.Logger

	sessions  *session.FileStore
	personas  *persona.Manager
	userFiles *contextfile.Store
	builder   *prompt.Builder

	modelFactory ModelFactory
	retryDelay   time.Duration
	now          func() time.Time
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".liminal-salt")
}

// defaultIdentity seeds the initial persona on first run.
const defaultIdentity = `# Identity

You are a helpful, thoughtful assistant. Answer plainly and directly.
Admit uncertainty instead of guessing.
`

// New creates an App rooted at dataDir, creating the directory layout and
// the default persona on first run.
func New(dataDir string, optFns ...func(o *Options)) (*App, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	sessions, err := session.NewFileStore(filepath.Join(dataDir, "sessions"),
		func(o *session.StoreOptions) { o.Logger = opts.Logger })
	if err != nil {
		return nil, err
	}
	personas, err := persona.NewManager(filepath.Join(dataDir, "personas"),
		func(o *persona.ManagerOptions) { o.Logger = opts.Logger })
	if err != nil {
		return nil, err
	}
	userFiles, err := contextfile.NewStore(filepath.Join(dataDir, "context"),
		func(o *contextfile.StoreOptions) { o.Logger = opts.Logger })
	if err != nil {
		return nil, err
	}

	a := &App{
		dataDir:      dataDir,
		logger:       opts.Logger,
		sessions:     sessions,
		personas:     personas,
		userFiles:    userFiles,
		modelFactory: opts.ModelFactory,
		retryDelay:   opts.RetryDelay,
		now:          opts.Now,
	}
	a.builder = prompt.NewBuilder(filepath.Join(dataDir, "personas"), func(o *prompt.BuilderOptions) {
		o.UserFiles = userFiles
		o.PersonaFiles = a.personaFiles
		o.Logger = opts.Logger
	})

	if err := a.ensureDefaultPersona(); err != nil {
		return nil, err
	}
	return a, nil
}

// ensureDefaultPersona seeds the first persona so a fresh install can chat
// immediately.
func (a *App) ensureDefaultPersona() error {
	names, err := a.personas.List()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	return a.personas.Create(config.DefaultPersona, defaultIdentity)
}

// personaFiles returns the context store scoped to a persona, nil when the
// persona directory does not exist.
func (a *App) personaFiles(name string) *contextfile.Store {
	if !a.personas.Exists(name) {
		return nil
	}
	store, err := contextfile.NewStore(filepath.Join(a.personas.Dir(name), "context"),
		func(o *contextfile.StoreOptions) { o.Logger = a.logger })
	if err != nil {
		a.logger.Warn("persona context store unavailable", "persona", name, "error", err)
		return nil
	}
	return store
}

// DataDir returns the root data directory.
func (a *App) DataDir() string { return a.dataDir }

// ConfigPath returns the location of the settings document.
func (a *App) ConfigPath() string { return filepath.Join(a.dataDir, "config.json") }

// MemoryPath returns the location of the long-term memory document.
func (a *App) MemoryPath() string { return filepath.Join(a.dataDir, "ltm.md") }

// Config reads the settings document fresh from disk.
func (a *App) Config() (*config.Config, error) {
	return config.Load(a.ConfigPath())
}

// SaveConfig persists the settings document atomically.
func (a *App) SaveConfig(cfg *config.Config) error {
	return config.Save(a.ConfigPath(), cfg)
}

// chatModel resolves the provider for the current configuration.
func (a *App) chatModel(cfg *config.Config) model.Model {
	if a.modelFactory != nil {
		return a.modelFactory(cfg)
	}
	switch cfg.Provider {
	case "anthropic":
		return anthropicmodel.NewModel(cfg.APIKey)
	default:
		return openrouter.NewModel(cfg.APIKey, func(o *openrouter.Options) {
			o.Model = cfg.Model
			o.SiteURL = cfg.SiteURL
			o.SiteName = cfg.SiteName
		})
	}
}

// modelID resolves the model id for a persona, honoring its override.
func (a *App) modelID(cfg *config.Config, personaName string) string {
	if override := a.personas.ModelOverride(personaName); override != "" {
		return override
	}
	return cfg.Model
}

// TurnOptions adjust a single SendTurn call.
type TurnOptions struct {
	// SkipUserSave suppresses persisting the user text, for retrying a
	// turn whose user message is already in the session.
	SkipUserSave bool
}

// SendTurn runs one conversation exchange in the given session and returns
// the engine result. Configuration and persona overrides are resolved fresh
// so the call always reflects current settings.
func (a *App) SendTurn(ctx context.Context, sessionID, text string, optFns ...func(o *TurnOptions)) (engine.Result, error) {
	var turnOpts TurnOptions
	for _, fn := range optFns {
		fn(&turnOpts)
	}

	cfg, err := a.Config()
	if err != nil {
		return engine.Result{}, err
	}
	if err := cfg.Validate(); err != nil {
		return engine.Result{}, err
	}

	sess := a.sessions.Load(sessionID)
	if sess.LoadError {
		return engine.Result{}, fmt.Errorf("salt: session %s could not be loaded", sessionID)
	}
	m := a.chatModel(cfg)
	id := a.modelID(cfg, sess.Persona)

	// Title generation piggybacks on the same provider and model.
	titles := titler.NewSynthesizer(m, id, func(o *titler.Options) { o.Logger = a.logger })
	eng := engine.New(a.sessions, a.builder, func(o *engine.Options) {
		o.Logger = a.logger
		o.Now = a.now
		o.Titles = titles
		if a.retryDelay > 0 {
			o.RetryDelay = a.retryDelay
		}
	})

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	res := eng.Turn(ctx, engine.TurnInput{
		Model:             m,
		ModelID:           id,
		Session:           sess,
		UserText:          text,
		LTMPath:           a.MemoryPath(),
		HistoryLimit:      cfg.HistoryLimit,
		UserTimezone:      cfg.UserTimezone,
		AssistantTimezone: cfg.AssistantTZ,
		SkipUserSave:      turnOpts.SkipUserSave,
	})
	return res, nil
}

// ValidateAPIKey checks the configured key against the OpenRouter catalog
// endpoint. For the Anthropic provider a minimal completion is attempted
// instead, since Anthropic has no free listing endpoint.
func (a *App) ValidateAPIKey(ctx context.Context) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return config.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, auxTimeout)
	defer cancel()

	if cfg.Provider == "anthropic" {
		_, err := a.chatModel(cfg).Complete(ctx, model.Request{
			Model:    cfg.Model,
			Messages: []model.Message{{Role: "user", Content: "ping"}},
		})
		return err
	}
	_, err = openrouter.ListModels(ctx, cfg.APIKey)
	return err
}

// ListModels fetches the OpenRouter model catalog.
func (a *App) ListModels(ctx context.Context) ([]openrouter.CatalogEntry, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, config.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, auxTimeout)
	defer cancel()
	return openrouter.ListModels(ctx, cfg.APIKey)
}

// ---------------------------------------------------------------------------
// Sessions

// Sessions exposes the underlying session store for read operations.
func (a *App) Sessions() *session.FileStore { return a.sessions }

// ListSessions returns all sessions newest first.
func (a *App) ListSessions() []*session.Session {
	return a.sessions.List()
}

// GroupedSessions returns sessions grouped for sidebar rendering.
func (a *App) GroupedSessions() session.Grouped {
	return session.GroupByPersona(a.sessions.List())
}

// Session loads a single session, returning a placeholder for corrupt files.
func (a *App) Session(id string) *session.Session {
	return a.sessions.Load(id)
}

// NewSession creates a session bound to the given persona, or the default
// persona when empty.
func (a *App) NewSession(personaName string) (*session.Session, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if personaName == "" {
		personaName = cfg.DefaultPersona
	}
	return a.sessions.Create(personaName)
}

// EnsureSession returns the most recent session for the persona if it is
// still empty, otherwise creates a fresh one. This keeps "new chat" from
// littering the store with empty files.
func (a *App) EnsureSession(personaName string) (*session.Session, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if personaName == "" {
		personaName = cfg.DefaultPersona
	}
	for _, s := range a.sessions.List() {
		if s.Persona == personaName && len(s.Messages) == 0 && !s.LoadError {
			return s, nil
		}
	}
	return a.sessions.Create(personaName)
}

// DeleteSession removes a session. Deleting an absent session is not an error.
func (a *App) DeleteSession(id string) error {
	return a.sessions.Delete(id)
}

// RenameSession sets a session's title directly.
func (a *App) RenameSession(id, title string) error {
	sess := a.sessions.Load(id)
	if sess.LoadError {
		return fmt.Errorf("salt: session %s is not editable", id)
	}
	sess.Title = title
	return a.sessions.Save(sess)
}

// SetPinned toggles a session's pinned flag.
func (a *App) SetPinned(id string, pinned bool) error {
	sess := a.sessions.Load(id)
	if sess.LoadError {
		return fmt.Errorf("salt: session %s is not editable", id)
	}
	sess.Pinned = pinned
	return a.sessions.Save(sess)
}

// SaveDraft persists unsent input so it survives switching sessions.
func (a *App) SaveDraft(id, draft string) error {
	sess := a.sessions.Load(id)
	if sess.LoadError {
		return fmt.Errorf("salt: session %s is not editable", id)
	}
	sess.Draft = draft
	return a.sessions.Save(sess)
}

// ---------------------------------------------------------------------------
// Personas

// Personas exposes the underlying persona manager for read operations.
func (a *App) Personas() *persona.Manager { return a.personas }

// ListPersonas returns all persona names sorted.
func (a *App) ListPersonas() ([]string, error) {
	return a.personas.List()
}

// CreatePersona creates a persona with the given identity content.
func (a *App) CreatePersona(name, content string) error {
	return a.personas.Create(name, content)
}

// RenamePersona renames a persona and propagates the change to every
// session bound to it and to the default-persona setting.
func (a *App) RenamePersona(oldName, newName string) error {
	if err := a.personas.Rename(oldName, newName); err != nil {
		return err
	}
	updated, err := a.sessions.RenamePersona(oldName, newName)
	if err != nil {
		return err
	}
	a.logger.Info("persona renamed", "from", oldName, "to", newName, "sessions_updated", updated)

	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if cfg.DefaultPersona == oldName {
		cfg.DefaultPersona = newName
		return a.SaveConfig(cfg)
	}
	return nil
}

// DeletePersona removes a persona and reassigns its sessions to the default
// persona. The default persona itself cannot be deleted.
func (a *App) DeletePersona(name string) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if name == cfg.DefaultPersona {
		return ErrDefaultPersona
	}
	if err := a.personas.Delete(name); err != nil {
		return err
	}
	reassigned, err := a.sessions.RenamePersona(name, cfg.DefaultPersona)
	if err != nil {
		return err
	}
	a.logger.Info("persona deleted", "name", name, "sessions_reassigned", reassigned)
	return nil
}

// PersonaContent returns the filename and content of a persona's primary
// instruction file.
func (a *App) PersonaContent(name string) (string, string, error) {
	return a.personas.InstructionContent(name)
}

// SavePersonaContent rewrites a persona's primary instruction file.
func (a *App) SavePersonaContent(name, content string) error {
	return a.personas.SaveInstructionContent(name, content)
}

// PersonaModelOverride returns the persona's model override, empty when the
// persona uses the global model.
func (a *App) PersonaModelOverride(name string) string {
	return a.personas.ModelOverride(name)
}

// SetPersonaModelOverride sets or clears a persona's model override.
func (a *App) SetPersonaModelOverride(name, modelID string) error {
	return a.personas.SetModelOverride(name, modelID)
}

// ---------------------------------------------------------------------------
// Context files

// ContextFiles returns the store for the given scope: a persona name for
// persona-scoped files, empty for the global user files.
func (a *App) ContextFiles(scope string) (*contextfile.Store, error) {
	if scope == "" {
		return a.userFiles, nil
	}
	if store := a.personaFiles(scope); store != nil {
		return store, nil
	}
	return nil, persona.ErrNotFound
}

// ---------------------------------------------------------------------------
// Long-term memory

// curator builds the memory curator for the current configuration.
func (a *App) curator(cfg *config.Config) *memory.Curator {
	m := a.chatModel(cfg)
	return memory.NewCurator(m, cfg.Model, a.MemoryPath(),
		func(o *memory.Options) { o.Logger = a.logger })
}

// Memory returns the current long-term memory document.
func (a *App) Memory() (string, error) {
	cfg, err := a.Config()
	if err != nil {
		return "", err
	}
	return a.curator(cfg).Content()
}

// MemoryModTime reports when the memory document was last curated, and
// whether one exists.
func (a *App) MemoryModTime() (time.Time, bool) {
	cfg, err := a.Config()
	if err != nil {
		return time.Time{}, false
	}
	return a.curator(cfg).ModTime()
}

// UpdateMemory rewrites the memory document from every user message across
// all sessions.
func (a *App) UpdateMemory(ctx context.Context) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	corpus, count := a.sessions.AggregateUserContent()
	a.logger.Info("updating memory", "user_messages", count)

	ctx, cancel := context.WithTimeout(ctx, auxTimeout)
	defer cancel()
	return a.curator(cfg).Update(ctx, corpus)
}

// ModifyMemory applies a natural-language edit instruction to the memory
// document.
func (a *App) ModifyMemory(ctx context.Context, command string) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, auxTimeout)
	defer cancel()
	return a.curator(cfg).ModifyWithCommand(ctx, command)
}

// WipeMemory removes the memory document.
func (a *App) WipeMemory() error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	return a.curator(cfg).Wipe()
}
