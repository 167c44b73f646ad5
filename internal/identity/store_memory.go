package identity

import (
	"context"
	"fmt"
	"sync"

	"keygate/pkg/platform/sentinel"
)

// InMemoryUserStore keeps local credentials in memory for dev and tests.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*UserRecord
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]*UserRecord)}
}

func (s *InMemoryUserStore) Save(_ context.Context, user *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Email]; exists {
		return fmt.Errorf("user %s: %w", user.Email, sentinel.ErrConflict)
	}
	s.users[user.Email] = user
	return nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
}
