// Package assistant runs the question pipeline for chat sessions: build the
// prompt, ask the model, check groundedness and log every turn.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bull/groundchat/internal/history"
	"github.com/bull/groundchat/internal/indexer"
	"github.com/bull/groundchat/internal/llm"
	"github.com/bull/groundchat/internal/prompt"
)

// User-facing messages for failed turns.
const (
	MsgEmptyResponse   = "AI response was empty."
	MsgNonTextResponse = "AI response was not a string."
)

// Indexer is the part of indexer.Indexer the assistant uses.
type Indexer interface {
	Index(ctx context.Context, sourceID, content string) (*indexer.Result, error)
	IndexSnippet(ctx context.Context, text string) (*indexer.Result, error)
	DeleteBySource(ctx context.Context, sourceID string) error
	Sources(ctx context.Context) ([]string, error)
}

// PromptBuilder turns a question into model input.
type PromptBuilder interface {
	Build(ctx context.Context, query string) (*prompt.Prompt, error)
}

// Config holds assistant settings.
type Config struct {
	SystemPrompt string
}

// Manager owns the sessions and the shared pipeline components.
type Manager struct {
	indexer Indexer
	prompts PromptBuilder
	model   llm.Client
	store   history.Store
	system  string
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock // only ids with a call in flight
}

// sessionLock serializes calls on one session id. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a manager. Sessions are created lazily by Session.
func NewManager(ix Indexer, prompts PromptBuilder, model llm.Client, store history.Store, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = llm.DefaultSystemPrompt
	}
	return &Manager{
		indexer: ix,
		prompts: prompts,
		model:   model,
		store:   store,
		system:  cfg.SystemPrompt,
		logger:  logger,
		now:     time.Now,
		locks:   make(map[string]*sessionLock),
	}
}

// Session returns a handle on the session id. Handles are cheap and hold no
// state beyond the conversation log.
func (m *Manager) Session(id string) *Session {
	return &Session{id: id, m: m, log: m.store.Open(id)}
}

// lock acquires the lock for session id and returns its release func.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// Sessions lists ids of sessions with saved turns.
func (m *Manager) Sessions(ctx context.Context) ([]string, error) {
	return m.store.Sessions(ctx)
}

// Upload indexes an artifact under its name.
func (m *Manager) Upload(ctx context.Context, name, content string) (*indexer.Result, error) {
	return m.indexer.Index(ctx, name, content)
}

// Replace indexes content under name after dropping whatever was stored for
// that name before, so a shorter new version leaves no stale chunks.
func (m *Manager) Replace(ctx context.Context, name, content string) (*indexer.Result, error) {
	if err := m.indexer.DeleteBySource(ctx, name); err != nil {
		return nil, err
	}
	return m.indexer.Index(ctx, name, content)
}

// Paste indexes a code snippet.
func (m *Manager) Paste(ctx context.Context, snippet string) (*indexer.Result, error) {
	return m.indexer.IndexSnippet(ctx, snippet)
}

// Delete removes an artifact from the index.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.indexer.DeleteBySource(ctx, name)
}

// Files lists indexed artifact names.
func (m *Manager) Files(ctx context.Context) ([]string, error) {
	return m.indexer.Sources(ctx)
}

// errorMessage renders a model failure the way it is shown and logged.
func errorMessage(err error) string {
	var credErr *llm.CredentialError
	switch {
	case errors.As(err, &credErr):
		return "Error: " + credErr.Error()
	case errors.Is(err, llm.ErrEmptyResponse):
		return MsgEmptyResponse
	case errors.Is(err, llm.ErrNonTextResponse):
		return MsgNonTextResponse
	default:
		return "Error: " + err.Error()
	}
}
