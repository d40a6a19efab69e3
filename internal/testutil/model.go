package testutil

import (
	"context"
	"sync"
)

// StubModel is an llm.Client returning a canned answer.
type StubModel struct {
	Answer string
	Err    error

	mu      sync.Mutex
	systems []string
	prompts []string
}

func (m *StubModel) Complete(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, user)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

// Prompts returns the user messages received so far.
func (m *StubModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Systems returns the system instructions received so far.
func (m *StubModel) Systems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.systems...)
}
