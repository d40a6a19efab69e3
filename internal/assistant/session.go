package assistant

import (
	"context"
	"fmt"

	"github.com/bull/groundchat/internal/grounding"
	"github.com/bull/groundchat/internal/history"
	"github.com/bull/groundchat/internal/prompt"
)

// Reply is the outcome of one question.
type Reply struct {
	Text     string      // What to show: answer with warning banner, or the error message
	Answer   string      // Raw model answer, empty on failure
	Grounded bool        // False when the warning banner was added
	Mode     prompt.Mode // How the prompt was built
	Err      error       // Set when the turn failed
}

// Session is a handle on one conversation. Handles for the same id share a
// lock held by the Manager, so questions on a session run one at a time.
type Session struct {
	id  string
	m   *Manager
	log history.Log
}

func (s *Session) ID() string { return s.id }

// Ask runs the full pipeline for question. Model and retrieval failures are
// logged as an error turn and reported in Reply.Err; the returned error is
// only set when the conversation log itself cannot be written.
func (s *Session) Ask(ctx context.Context, question string) (*Reply, error) {
	unlock := s.m.lock(s.id)
	defer unlock()

	logger := s.m.logger.With("session", s.id)

	if err := s.append(ctx, history.RoleUser, question); err != nil {
		return nil, err
	}

	p, err := s.m.prompts.Build(ctx, question)
	if err != nil {
		return s.fail(ctx, err)
	}
	logger.Debug("Prompt sent to AI", "mode", p.Mode, "prompt", p.Text)

	answer, err := s.m.model.Complete(ctx, s.m.system, p.Text)
	if err != nil {
		logger.Warn("Model call failed", "error", err)
		reply, logErr := s.fail(ctx, err)
		if reply != nil {
			reply.Mode = p.Mode
		}
		return reply, logErr
	}

	if err := s.append(ctx, history.RoleAssistant, answer); err != nil {
		return nil, err
	}

	text, grounded := grounding.Annotate(answer, p.Chunks)
	if !grounded {
		logger.Info("Answer may not be grounded", "mode", p.Mode, "chunks", len(p.Chunks))
	}

	return &Reply{Text: text, Answer: answer, Grounded: grounded, Mode: p.Mode}, nil
}

// History returns the session's turns in order.
func (s *Session) History(ctx context.Context) ([]history.Turn, error) {
	return s.log.All(ctx)
}

// Clear empties the session's log.
func (s *Session) Clear(ctx context.Context) error {
	unlock := s.m.lock(s.id)
	defer unlock()
	return s.log.Clear(ctx)
}

// Label names the session after its first question.
func (s *Session) Label(ctx context.Context) (string, error) {
	turns, err := s.log.All(ctx)
	if err != nil {
		return "", err
	}
	return history.Label(turns), nil
}

func (s *Session) fail(ctx context.Context, cause error) (*Reply, error) {
	msg := errorMessage(cause)
	if err := s.append(ctx, history.RoleError, msg); err != nil {
		return nil, err
	}
	return &Reply{Text: msg, Err: cause}, nil
}

func (s *Session) append(ctx context.Context, role history.Role, text string) error {
	// The log must be written even when the request context is already done.
	ctx = context.WithoutCancel(ctx)
	if err := s.log.Append(ctx, history.Turn{Role: role, Text: text, At: s.m.now()}); err != nil {
		return fmt.Errorf("append %s turn: %w", role, err)
	}
	return nil
}
