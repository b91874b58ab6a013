// Package cache stores upstream API responses keyed by request signature.
package cache

import (
	"fmt"
	"io"
	"time"
)

// DefaultTTL is how long a cached response stays fresh.
const DefaultTTL = 6 * time.Hour

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a response cache. Entries older than the store's TTL behave as absent.
// Payloads are opaque JSON documents.
type Store interface {
	// Get returns the payload for key if present and fresh.
	Get(key string) ([]byte, bool)
	// Set stores payload under key, replacing any existing entry.
	Set(key string, payload []byte) error
	// Clear removes all entries.
	Clear() error
}

// Pruner is implemented by stores that can drop expired entries in bulk.
type Pruner interface {
	Prune() (int, error)
}

// Options selects and configures a Store backend.
type Options struct {
	Backend    string
	Dir        string
	DBFile     string
	TTL        time.Duration
	MaxEntries int
}

// Open creates the Store described by opts.
func Open(opts Options) (Store, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir, ttl), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.DBFile, ttl)
	case BackendMemory:
		return NewMemoryStore(opts.MaxEntries, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Close releases resources held by store, if it holds any.
func Close(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
