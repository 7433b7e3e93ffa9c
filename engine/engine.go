// Package engine runs conversation turns: it assembles the system prompt,
// windows the history, calls the chat model with retries, persists both
// sides of the exchange, and keeps session titles healthy.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liminalsalt/salt/logging"
	"github.com/liminalsalt/salt/model"
	"github.com/liminalsalt/salt/prompt"
	"github.com/liminalsalt/salt/session"
	"github.com/liminalsalt/salt/titler"
)

const (
	defaultRetryDelay = 2 * time.Second
	maxAttempts       = 2
	timeLayout        = "Monday, January 2, 2006 at 3:04 PM"
)

// Richer logging surfaces implemented by logging.ChatLogger. The engine
// emits through them when the injected logger supports it.
type llmCallLogger interface {
	LogLLMCall(model string, attempt int, dur time.Duration, success bool, err error)
}

type turnLogger interface {
	LogTurn(sessionID string, messages int, dur time.Duration, success bool)
}

// Engine orchestrates a single conversation turn end to end.
type Engine struct {
	store      *session.FileStore
	builder    *prompt.Builder
	titles     *titler.Synthesizer
	logger     logging.Logger
	retryDelay time.Duration
	now        func() time.Time
}

// Options configures an Engine.
type Options struct {
	// Titles generates session titles after successful turns. When nil,
	// titles are left untouched.
	Titles *titler.Synthesizer

	// RetryDelay is the pause between model call attempts.
	RetryDelay time.Duration

	// Now supplies the clock used for message timestamps and the time
	// context header.
	Now func() time.Time

	Logger logging.Logger
}

// New builds an Engine over the given session store and prompt builder.
func New(store *session.FileStore, builder *prompt.Builder, optFns ...func(o *Options)) *Engine {
	opts := Options{
		RetryDelay: defaultRetryDelay,
		Now:        time.Now,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		store:      store,
		builder:    builder,
		titles:     opts.Titles,
		logger:     opts.Logger,
		retryDelay: opts.RetryDelay,
		now:        opts.Now,
	}
}

// TurnInput carries everything one turn needs. The caller resolves model,
// persona and limits per turn so configuration changes take effect without
// restarting anything.
type TurnInput struct {
	Model    model.Model
	ModelID  string
	Session  *session.Session
	UserText string

	// LTMPath locates the long-term memory document, empty to omit it.
	LTMPath string

	// HistoryLimit bounds the exchanges sent to the model. The window is
	// twice this value in messages.
	HistoryLimit int

	UserTimezone      string
	AssistantTimezone string

	// SkipUserSave suppresses appending UserText to the session, for
	// callers that already persisted it (retrying a failed turn).
	SkipUserSave bool
}

// Result reports the outcome of a turn. Err is set when every attempt
// failed; AssistantText then carries the error sentinel that was stored in
// the session so callers can render the transcript uniformly.
type Result struct {
	AssistantText string
	Err           error
	TitleChanged  bool
	NewTitle      string
}

// Turn executes one exchange. The user message is persisted before the
// model call so it survives a crash mid-turn, and a failed turn is recorded
// in the transcript as an error sentinel rather than silently dropped.
func (e *Engine) Turn(ctx context.Context, in TurnInput) Result {
	turnID := uuid.NewString()[:8]
	log := e.logger
	start := e.now()

	if !in.SkipUserSave {
		in.Session.Append(session.NewMessage(session.RoleUser, in.UserText))
		if err := e.store.Save(in.Session); err != nil {
			return Result{Err: fmt.Errorf("engine: save user message: %w", err)}
		}
	}

	system := e.systemPrompt(in)
	messages := e.window(in.Session, in.HistoryLimit, system)

	text, err := e.complete(ctx, in.Model, in.ModelID, messages, turnID)
	if err != nil {
		sentinel := session.ErrorPrefix + " " + err.Error()
		in.Session.Append(session.NewMessage(session.RoleAssistant, sentinel))
		if saveErr := e.store.Save(in.Session); saveErr != nil {
			log.Error("failed to record turn error", "turn_id", turnID, "error", saveErr)
		}
		log.Error("turn failed", "turn_id", turnID, "session", in.Session.ID, "error", err)
		if tl, ok := e.logger.(turnLogger); ok {
			tl.LogTurn(in.Session.ID, len(in.Session.Messages), e.now().Sub(start), false)
		}
		return Result{AssistantText: sentinel, Err: err}
	}

	in.Session.Append(session.NewMessage(session.RoleAssistant, text))
	res := Result{AssistantText: text}
	e.refreshTitle(ctx, in.Session, &res)
	if err := e.store.Save(in.Session); err != nil {
		return Result{AssistantText: text, Err: fmt.Errorf("engine: save turn: %w", err)}
	}

	log.Info("turn complete",
		"turn_id", turnID,
		"session", in.Session.ID,
		"duration", e.now().Sub(start).String(),
		"messages", len(in.Session.Messages))
	if tl, ok := e.logger.(turnLogger); ok {
		tl.LogTurn(in.Session.ID, len(in.Session.Messages), e.now().Sub(start), true)
	}
	return res
}

// complete calls the model with a bounded retry. Empty responses after
// artifact stripping count as failures and are retried like errors.
func (e *Engine) complete(ctx context.Context, m model.Model, modelID string, messages []model.Message, turnID string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callStart := e.now()
		raw, err := m.Complete(ctx, model.Request{Model: modelID, Messages: messages})
		if err == nil {
			text := stripArtifacts(raw)
			if text != "" {
				if cl, ok := e.logger.(llmCallLogger); ok {
					cl.LogLLMCall(modelID, attempt, e.now().Sub(callStart), true, nil)
				}
				return text, nil
			}
			err = fmt.Errorf("model returned an empty response")
		}
		if cl, ok := e.logger.(llmCallLogger); ok {
			cl.LogLLMCall(modelID, attempt, e.now().Sub(callStart), false, err)
		}
		lastErr = err
		e.logger.Warn("model call failed", "turn_id", turnID, "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			select {
			case <-time.After(e.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}

// systemPrompt prepends the time context header to the assembled persona
// prompt so the model always knows the current date regardless of persona.
func (e *Engine) systemPrompt(in TurnInput) string {
	header := e.timeContext(in.UserTimezone, in.AssistantTimezone)
	body := e.builder.Assemble(in.Session.Persona, in.LTMPath)
	if body == "" {
		return header
	}
	return header + "\n\n" + body
}

// timeContext renders the current-time banner. The assistant timezone line
// only appears when it differs from the user's, and the instruction forbids
// the model from disclaiming real-time awareness since the time is refreshed
// on every message.
func (e *Engine) timeContext(userTZ, assistantTZ string) string {
	now := e.now()
	userTime := now.In(e.location(userTZ)).Format(timeLayout)

	var b strings.Builder
	if assistantTZ != "" && assistantTZ != userTZ {
		b.WriteString("*** CURRENT TIME ***\n")
		b.WriteString("User's time: " + userTime + "\n")
		b.WriteString("Your time: " + now.In(e.location(assistantTZ)).Format(timeLayout) + "\n\n")
		b.WriteString("When asked about or considering the time, use the times above. ")
		b.WriteString("These are accurate and updated with each message. ")
	} else {
		b.WriteString("*** CURRENT TIME: " + userTime + " ***\n")
		b.WriteString("When asked about or considering the time, use the time above. ")
		b.WriteString("This time is accurate and updated with each message. ")
	}
	b.WriteString("Do not guess, assume, or make up times. ")
	b.WriteString("Do not say you lack real-time access; you are being given the current time.")
	return b.String()
}

func (e *Engine) location(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		e.logger.Warn("unknown timezone, using local time", "timezone", name)
		return time.Local
	}
	return loc
}

// window maps the session tail onto the wire format: one system message
// followed by at most 2*limit history messages.
func (e *Engine) window(sess *session.Session, limit int, system string) []model.Message {
	msgs := sess.Messages
	if limit > 0 && len(msgs) > 2*limit {
		msgs = msgs[len(msgs)-2*limit:]
	}
	out := make([]model.Message, 0, len(msgs)+1)
	out = append(out, model.Message{Role: "system", Content: system})
	for _, m := range msgs {
		out = append(out, model.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// refreshTitle keeps titles healthy in two tiers: sessions still carrying
// the placeholder get a generated title, and titles corrupted by model
// artifacts get regenerated.
func (e *Engine) refreshTitle(ctx context.Context, sess *session.Session, res *Result) {
	if e.titles == nil {
		return
	}
	needsTitle := sess.Title == "" || sess.Title == session.DefaultTitle
	if !needsTitle && !titler.HasArtifacts(sess.Title) {
		return
	}

	first := sess.FirstUserMessage()
	if first == "" {
		return
	}
	title := e.titles.Generate(ctx, first, res.AssistantText)
	if title == "" || title == sess.Title {
		return
	}
	sess.Title = title
	res.TitleChanged = true
	res.NewTitle = title
	e.logger.Debug("session title refreshed", "session", sess.ID, "title", title)
}

func stripArtifacts(s string) string {
	for _, a := range []string{"<s>", "</s>"} {
		s = strings.ReplaceAll(s, a, "")
	}
	return strings.TrimSpace(s)
}
