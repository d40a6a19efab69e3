package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps logs in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Turn
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Turn)}
}

func (s *MemoryStore) Open(sessionID string) Log {
	return &memoryLog{store: s, id: sessionID}
}

func (s *MemoryStore) Sessions(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }

type memoryLog struct {
	store *MemoryStore
	id    string
}

func (l *memoryLog) Append(_ context.Context, turn Turn) error {
	if l.id == "" {
		return ErrEmptySessionID
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.sessions[l.id] = append(l.store.sessions[l.id], turn)
	return nil
}

func (l *memoryLog) All(context.Context) ([]Turn, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]Turn(nil), l.store.sessions[l.id]...), nil
}

func (l *memoryLog) Clear(context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	delete(l.store.sessions, l.id)
	return nil
}
