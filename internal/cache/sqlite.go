package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps cached responses in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) the cache database at dbPath.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./cache.db"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	if _, err := db.Exec(ResponseCacheSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), closeErr)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

// Get retrieves a fresh cached payload. Expired rows are deleted.
func (s *SQLiteStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	var data string
	var cachedAt time.Time
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT data, cached_at FROM %s WHERE cache_key = ?", responseCacheTable),
		key,
	).Scan(&data, &cachedAt)
	s.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Failed to query cache, discarding entry", "key", key, "error", err)
		s.delete(key)
		return nil, false
	}

	if age := s.now().UTC().Sub(cachedAt); age > s.ttl {
		slog.Debug("Cache expired", "table", responseCacheTable, "key", key, "age", age)
		s.delete(key)
		return nil, false
	}

	return []byte(data), true
}

// Set stores a payload, replacing any existing row for key.
func (s *SQLiteStore) Set(key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (cache_key, data, cached_at)
		VALUES (?, ?, ?)
	`, responseCacheTable)

	if _, err := s.db.Exec(query, key, string(payload), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", responseCacheTable))
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	slog.Info("Cache cleared", "table", responseCacheTable, "rows_deleted", rows)
	return nil
}

// Prune removes expired cache entries.
func (s *SQLiteStore) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().UTC().Add(-s.ttl)
	result, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE cached_at < ?", responseCacheTable),
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("Cleared expired cache entries", "table", responseCacheTable, "count", rows)
	}
	return int(rows), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", responseCacheTable), key); err != nil {
		slog.Warn("Failed to delete cache entry", "key", key, "error", err)
	}
}
