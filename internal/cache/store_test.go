package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lepinkainen/lumo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackends(t *testing.T) {
	env := testutil.NewTestEnv(t)

	tests := []struct {
		name    string
		opts    Options
		want    any
		wantErr bool
	}{
		{name: "default is file", opts: Options{Dir: env.Path("files")}, want: &FileStore{}},
		{name: "sqlite", opts: Options{Backend: BackendSQLite, DBFile: filepath.Join(env.RootDir(), "c.db")}, want: &SQLiteStore{}},
		{name: "memory", opts: Options{Backend: BackendMemory}, want: &MemoryStore{}},
		{name: "unknown", opts: Options{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = Close(store) })
			assert.IsType(t, tt.want, store)

			require.NoError(t, store.Set("k", []byte(`{"ok":true}`)))
			got, ok := store.Get("k")
			require.True(t, ok)
			assert.JSONEq(t, `{"ok":true}`, string(got))
		})
	}
}

func TestOpenDefaultsTTL(t *testing.T) {
	store, err := Open(Options{Backend: BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)

	fileStore, ok := store.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, DefaultTTL, fileStore.ttl)
}

func TestCacheCommands(t *testing.T) {
	store := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, store.Set("k", []byte(`{}`)))

	require.NoError(t, (&PruneCacheCmd{}).Run(store))
	_, ok := store.Get("k")
	assert.True(t, ok, "prune keeps fresh entries")

	require.NoError(t, (&ClearCacheCmd{}).Run(store))
	_, ok = store.Get("k")
	assert.False(t, ok)

	assert.NoError(t, (&PruneCacheCmd{}).Run(NewMemoryStore(1, time.Hour)))
}
