package cache

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupFileStore(t *testing.T) (*FileStore, afero.Fs, *fakeClock) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewFileStore("/cache", DefaultTTL, WithFs(fsys), WithClock(clock.Now))
	return store, fsys, clock
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, _, _ := setupFileStore(t)
	payload := []byte(`{"results":[{"id":1,"title":"Fast & Furious"}]}`)

	require.NoError(t, store.Set("abc", payload))

	got, ok := store.Get("abc")
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestFileStoreMissingKey(t *testing.T) {
	store, _, _ := setupFileStore(t)

	got, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestFileStoreExpiry(t *testing.T) {
	const epsilon = time.Second

	t.Run("present just before ttl", func(t *testing.T) {
		store, _, clock := setupFileStore(t)
		require.NoError(t, store.Set("k", []byte(`{"ok":true}`)))

		clock.Advance(DefaultTTL - epsilon)
		_, ok := store.Get("k")
		assert.True(t, ok)
	})

	t.Run("absent just after ttl and removed", func(t *testing.T) {
		store, fsys, clock := setupFileStore(t)
		require.NoError(t, store.Set("k", []byte(`{"ok":true}`)))

		clock.Advance(DefaultTTL + epsilon)
		_, ok := store.Get("k")
		assert.False(t, ok)

		exists, err := afero.Exists(fsys, filepath.Join("/cache", "k.json"))
		require.NoError(t, err)
		assert.False(t, exists, "stale entry should be dropped on read")
	})
}

func TestFileStoreCorruptEntryIsDiscarded(t *testing.T) {
	store, fsys, _ := setupFileStore(t)
	require.NoError(t, store.Set("good", []byte(`{"id":1}`)))
	require.NoError(t, afero.WriteFile(fsys, "/cache/bad.json", []byte("{not json"), 0o644))

	_, ok := store.Get("bad")
	assert.False(t, ok)

	exists, err := afero.Exists(fsys, "/cache/bad.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok = store.Get("good")
	assert.True(t, ok, "other entries must survive a corrupt neighbour")
}

func TestFileStoreOverwriteLeavesNoTempFiles(t *testing.T) {
	store, fsys, _ := setupFileStore(t)

	require.NoError(t, store.Set("k", []byte(`{"v":1}`)))
	require.NoError(t, store.Set("k", []byte(`{"v":2}`)))

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got))

	entries, err := afero.ReadDir(fsys, "/cache")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}

func TestFileStoreRejectsNonJSONPayload(t *testing.T) {
	store, _, _ := setupFileStore(t)

	err := store.Set("k", []byte("plain text"))
	require.Error(t, err)

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestFileStoreUnsafeKeysAreHashed(t *testing.T) {
	store, fsys, _ := setupFileStore(t)

	require.NoError(t, store.Set("../../etc/passwd", []byte(`{}`)))

	entries, err := afero.ReadDir(fsys, "/cache")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Name(), 40+len(entryExt))

	_, ok := store.Get("../../etc/passwd")
	assert.True(t, ok)
}

func TestFileStoreClear(t *testing.T) {
	store, fsys, _ := setupFileStore(t)
	require.NoError(t, store.Set("a", []byte(`1`)))
	require.NoError(t, store.Set("b", []byte(`2`)))
	require.NoError(t, afero.WriteFile(fsys, "/cache/notes.txt", []byte("keep"), 0o644))

	require.NoError(t, store.Clear())

	_, ok := store.Get("a")
	assert.False(t, ok)
	_, ok = store.Get("b")
	assert.False(t, ok)

	exists, err := afero.Exists(fsys, "/cache/notes.txt")
	require.NoError(t, err)
	assert.True(t, exists, "clear only touches cache entries")
}

func TestFileStoreClearMissingDirectory(t *testing.T) {
	store := NewFileStore("/nowhere", time.Hour, WithFs(afero.NewMemMapFs()))
	assert.NoError(t, store.Clear())
}

func TestFileStorePrune(t *testing.T) {
	store, fsys, clock := setupFileStore(t)
	require.NoError(t, store.Set("old", []byte(`{}`)))
	clock.Advance(DefaultTTL - time.Minute)
	require.NoError(t, store.Set("fresh", []byte(`{}`)))
	clock.Advance(2 * time.Minute)

	removed, err := store.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := afero.Exists(fsys, "/cache/old.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok := store.Get("fresh")
	assert.True(t, ok)
}

func TestFileStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, time.Hour)

	require.NoError(t, store.Set("k", []byte(`{"disk":true}`)))

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `{"disk":true}`, string(got))
}

func TestFileStoreKeepsEntryReplacedByAnotherWriter(t *testing.T) {
	store, fsys, clock := setupFileStore(t)
	require.NoError(t, store.Set("shared", []byte(`{"v":1}`)))
	clock.Advance(DefaultTTL + time.Minute)

	stale, err := fsys.Stat("/cache/shared.json")
	require.NoError(t, err)

	// another worker renames a fresh entry into place after the stale one was read
	require.NoError(t, store.Set("shared", []byte(`{"v":2}`)))
	require.NoError(t, fsys.Chtimes("/cache/shared.json", clock.Now(), stale.ModTime().Add(time.Second)))

	assert.False(t, store.removeIfUnchanged("/cache/shared.json", stale))

	got, ok := store.Get("shared")
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got))
}

func TestFileStorePruneRemovesAbandonedTempFiles(t *testing.T) {
	store, fsys, clock := setupFileStore(t)
	require.NoError(t, fsys.MkdirAll("/cache", 0o755))

	require.NoError(t, afero.WriteFile(fsys, "/cache/crashed.123.tmp", []byte(`{"partial`), 0o644))
	require.NoError(t, fsys.Chtimes("/cache/crashed.123.tmp", clock.Now(), clock.Now().Add(-time.Hour)))
	require.NoError(t, afero.WriteFile(fsys, "/cache/writing.456.tmp", []byte(`{"partial`), 0o644))
	require.NoError(t, fsys.Chtimes("/cache/writing.456.tmp", clock.Now(), clock.Now().Add(-time.Minute)))

	removed, err := store.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := afero.Exists(fsys, "/cache/crashed.123.tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(fsys, "/cache/writing.456.tmp")
	require.NoError(t, err)
	assert.True(t, exists, "a temp file inside the grace period may belong to a live writer")
}
