// Package history keeps the ordered, append-only conversation log of each session.
package history

import (
	"context"
	"errors"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Turn is one entry of a conversation.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Log is the conversation of one session. Turns come back in append order and
// can only be removed all at once.
type Log interface {
	Append(ctx context.Context, turn Turn) error
	All(ctx context.Context) ([]Turn, error)
	Clear(ctx context.Context) error
}

// Store hands out per-session logs.
type Store interface {
	// Open returns the log for sessionID. Opening does not create anything.
	Open(sessionID string) Log

	// Sessions lists ids of sessions that have at least one turn, sorted.
	Sessions(ctx context.Context) ([]string, error)

	Close() error
}

// ErrEmptySessionID is returned when a log is used without a session id.
var ErrEmptySessionID = errors.New("session id is empty")

const labelMaxRunes = 30

// HasUserTurn reports whether the user has asked anything yet.
func HasUserTurn(turns []Turn) bool {
	for _, t := range turns {
		if t.Role == RoleUser {
			return true
		}
	}
	return false
}

// Label names a saved conversation after its first user turn.
func Label(turns []Turn) string {
	for _, t := range turns {
		if t.Role != RoleUser {
			continue
		}
		r := []rune(t.Text)
		if len(r) > labelMaxRunes {
			return string(r[:labelMaxRunes]) + "..."
		}
		return t.Text
	}
	return "New Chat"
}
