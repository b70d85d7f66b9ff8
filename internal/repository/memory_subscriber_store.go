package repository

import (
	"context"
	"sort"
	"sync"

	domrepo "StockPulse/internal/domain/repository"
)

// MemorySubscriberStore keeps subscribers in process memory. Wired
// when no Postgres DSN is configured; registrations do not survive a
// restart.
type MemorySubscriberStore struct {
	mu    sync.RWMutex
	chats map[string]struct{}
}

var _ domrepo.SubscriberStore = (*MemorySubscriberStore)(nil)

func NewMemorySubscriberStore() *MemorySubscriberStore {
	return &MemorySubscriberStore{chats: make(map[string]struct{})}
}

func (s *MemorySubscriberStore) Save(_ context.Context, chatID string) error {
	s.mu.Lock()
	s.chats[chatID] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *MemorySubscriberStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	out := make([]string, 0, len(s.chats))
	for id := range s.chats {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (s *MemorySubscriberStore) Close() error { return nil }
