// Package revocation implements the server-side token revocation list (TRL)
// keyed by jti. Entries live only as long as the revoked token would have,
// so the list stays bounded.
package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryList is a process-local revocation list for dev and tests. Expired
// entries are purged lazily on access.
type InMemoryList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemoryList() *InMemoryList {
	return &InMemoryList{revoked: make(map[string]time.Time)}
}

func (l *InMemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (l *InMemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.RLock()
	until, ok := l.revoked[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		l.mu.Lock()
		delete(l.revoked, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
