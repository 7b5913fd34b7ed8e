package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory TokenStore.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*QRToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]*QRToken)}
}

func (s *MemoryStore) Insert(ctx context.Context, t *QRToken) error {
	cp := *t
	s.mu.Lock()
	s.tokens[t.Token] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*QRToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) DeleteByTables(ctx context.Context, tableIDs []uuid.UUID) (int, error) {
	targets := make(map[uuid.UUID]bool, len(tableIDs))
	for _, id := range tableIDs {
		targets[id] = true
	}

	count := 0
	s.mu.Lock()
	for token, t := range s.tokens {
		if targets[t.TableID] {
			delete(s.tokens, token)
			count++
		}
	}
	s.mu.Unlock()
	return count, nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	count := 0
	s.mu.Lock()
	for token, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.tokens, token)
			count++
		}
	}
	s.mu.Unlock()
	return count, nil
}

// Count returns the number of stored tokens, expired ones included.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
