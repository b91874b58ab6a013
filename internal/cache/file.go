package cache

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	entryExt = ".json"
	tempExt  = ".tmp"

	// temp files younger than this may still belong to a live writer
	tempGracePeriod = 10 * time.Minute
)

type fileEntry struct {
	Key      string          `json:"key"`
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// FileStore keeps one JSON document per key in a directory.
// Writes go through a temp file and a rename, so concurrent writers
// (including other processes sharing the directory) never leave a
// partially written entry behind; the last writer wins.
type FileStore struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFs swaps the filesystem, e.g. for afero.NewMemMapFs in tests.
func WithFs(fsys afero.Fs) FileOption {
	return func(s *FileStore) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) FileOption {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string, ttl time.Duration, opts ...FileOption) *FileStore {
	if dir == "" {
		dir = "./cache"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &FileStore{
		fs:  afero.NewOsFs(),
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the payload stored under key when it is younger than the TTL.
// Stale and unreadable entries are removed and reported as a miss, unless
// another writer has replaced the file in the meantime.
func (s *FileStore) Get(key string) ([]byte, bool) {
	path := s.path(key)

	info, err := s.fs.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to stat cache entry", "key", key, "error", err)
		}
		return nil, false
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to read cache entry", "key", key, "error", err)
		}
		return nil, false
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.StoredAt.IsZero() || len(entry.Payload) == 0 {
		slog.Warn("Discarding corrupt cache entry", "key", key, "error", err)
		s.removeIfUnchanged(path, info)
		return nil, false
	}

	if age := s.now().Sub(entry.StoredAt); age > s.ttl {
		slog.Debug("Cache expired", "key", key, "age", age)
		s.removeIfUnchanged(path, info)
		return nil, false
	}

	return []byte(entry.Payload), true
}

// Set writes payload under key. payload must be a JSON document.
func (s *FileStore) Set(key string, payload []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fileEntry{Key: key, StoredAt: s.now().UTC(), Payload: payload}); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, s.name(key)+".*"+tempExt)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to move cache entry into place: %w", err)
	}

	return nil
}

// Clear removes every entry in the cache directory.
func (s *FileStore) Clear() error {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to list cache directory: %w", err)
	}

	removed := 0
	for _, info := range entries {
		if info.IsDir() || !isCacheFile(info.Name()) {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, info.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove cache entry: %w", err)
		}
		removed++
	}

	slog.Info("Cache cleared", "dir", s.dir, "entries", removed)
	return nil
}

// Prune removes expired and corrupt entries plus temp files abandoned by
// crashed writers, and returns how many files were dropped.
func (s *FileStore) Prune() (int, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list cache directory: %w", err)
	}

	now := s.now()
	pruned := 0
	for _, info := range entries {
		if info.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, info.Name())

		switch {
		case strings.HasSuffix(info.Name(), tempExt):
			if now.Sub(info.ModTime()) < tempGracePeriod {
				continue
			}
			s.remove(path)
			pruned++
		case strings.HasSuffix(info.Name(), entryExt):
			data, err := afero.ReadFile(s.fs, path)
			if err != nil {
				continue
			}
			var entry fileEntry
			if err := json.Unmarshal(data, &entry); err == nil && !entry.StoredAt.IsZero() && now.Sub(entry.StoredAt) <= s.ttl {
				continue
			}
			if s.removeIfUnchanged(path, info) {
				pruned++
			}
		}
	}

	if pruned > 0 {
		slog.Info("Cleared expired cache entries", "dir", s.dir, "count", pruned)
	}
	return pruned, nil
}

// removeIfUnchanged removes path only while it is still the file described by
// seen. A newer entry renamed into place by another writer is kept.
func (s *FileStore) removeIfUnchanged(path string, seen fs.FileInfo) bool {
	current, err := s.fs.Stat(path)
	if err != nil {
		return false
	}
	if !current.ModTime().Equal(seen.ModTime()) || current.Size() != seen.Size() {
		slog.Debug("Cache entry replaced by another writer, keeping it", "path", path)
		return false
	}
	s.remove(path)
	return true
}

func (s *FileStore) remove(path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to remove cache entry", "path", path, "error", err)
	}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, s.name(key)+entryExt)
}

// name maps key to a safe file name; keys from BuildKey pass through unchanged.
func (s *FileStore) name(key string) string {
	if key != "" && strings.IndexFunc(key, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-')
	}) < 0 {
		return key
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func isCacheFile(name string) bool {
	return strings.HasSuffix(name, entryExt) || strings.HasSuffix(name, tempExt)
}
