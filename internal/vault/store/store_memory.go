package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"keygate/internal/vault"
	"keygate/pkg/platform/sentinel"
)

const shardCount = 16

// InMemoryStore keeps secrets in a sharded map. Mutations for the same id
// always land on the same shard, so concurrent writes to one secret are
// serialized without a single global lock.
type InMemoryStore struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.RWMutex
	secrets map[string]*vault.Secret
}

func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{}
	for i := range s.shards {
		s.shards[i].secrets = make(map[string]*vault.Secret)
	}
	return s
}

func (s *InMemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.shards[h.Sum32()%shardCount]
}

func (s *InMemoryStore) Save(_ context.Context, secret *vault.Secret) error {
	sh := s.shardFor(secret.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	copied := *secret
	sh.secrets[secret.ID] = &copied
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id string) (*vault.Secret, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if secret, ok := sh.secrets[id]; ok {
		copied := *secret
		return &copied, nil
	}
	return nil, fmt.Errorf("secret %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Delete(_ context.Context, id string) (bool, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.secrets[id]; !ok {
		return false, nil
	}
	delete(sh.secrets, id)
	return true, nil
}
