package session

import (
	"context"
	"sync"
)

// Memory is the in-process store: used by tests and as the fallback when no
// Redis address is configured. Same atomicity contract as Redis, via a mutex.
type Memory struct {
	mu      sync.Mutex
	entries map[int64]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[int64]Entry)}
}

func (s *Memory) Stage(_ context.Context, userID int64, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = e
	return nil
}

func (s *Memory) Take(_ context.Context, userID int64) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if ok {
		delete(s.entries, userID)
	}
	return e, ok, nil
}
