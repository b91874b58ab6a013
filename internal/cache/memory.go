package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemoryEntries = 1024

// MemoryStore is a process-local, size-bounded cache.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore creates a MemoryStore holding up to maxEntries fresh entries.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool) {
	payload, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), payload...), true
}

func (m *MemoryStore) Set(key string, payload []byte) error {
	m.lru.Add(key, append([]byte(nil), payload...))
	return nil
}

func (m *MemoryStore) Clear() error {
	m.lru.Purge()
	return nil
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	return m.lru.Len()
}
