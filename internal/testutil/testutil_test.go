package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnvPaths(t *testing.T) {
	env := NewTestEnv(t)

	assert.True(t, filepath.IsAbs(env.RootDir()))
	assert.Equal(t, filepath.Join(env.RootDir(), "cache", "abc.json"), env.Path("cache", "abc.json"))
	assert.Equal(t, env.RootDir(), env.Path())
	assert.Equal(t, filepath.Join(env.RootDir(), "..x"), env.Path("..x"))
}

func TestTestEnvWriteConfig(t *testing.T) {
	env := NewTestEnv(t)

	path := env.WriteConfig("cache:\n  backend: memory\n")

	assert.Equal(t, env.Path("config.yaml"), path)
	assert.True(t, env.FileExists("config.yaml"))
	assert.False(t, env.FileExists("missing.yaml"))

	env.WriteFile("posters/nested/a.jpg", []byte("jpeg"))
	assert.True(t, env.FileExists("posters/nested/a.jpg"))
	assert.False(t, env.FileExists("posters"), "directories are not files")
}

func TestAssertGoldenJSONIgnoresFormatting(t *testing.T) {
	t.Setenv(UpdateGoldenEnv, "")
	env := NewTestEnv(t)
	path := env.WriteFile("genres.golden.json", []byte("{\n  \"genres\": [{\"id\": 28, \"name\": \"Action\"}]\n}\n"))

	AssertGoldenJSON(t, path, []byte(`{"genres":[{"name":"Action","id":28}]}`))
}

func TestAssertGoldenJSONUpdateModeIndents(t *testing.T) {
	t.Setenv(UpdateGoldenEnv, "true")
	env := NewTestEnv(t)
	path := env.Path("golden", "new.golden.json")

	AssertGoldenJSON(t, path, []byte(`{"id":603,"kind":"movie"}`))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": 603,\n  \"kind\": \"movie\"\n}\n", string(written))
}

func TestResetViper(t *testing.T) {
	viper.Set("outer.key", "value")

	t.Run("inner", func(t *testing.T) {
		ResetViper(t)
		assert.False(t, viper.IsSet("outer.key"))
		viper.Set("inner.key", "leaked?")
	})

	assert.False(t, viper.IsSet("inner.key"))
}

func TestSetViperValue(t *testing.T) {
	ResetViper(t)
	viper.Set("cache.backend", "file")

	t.Run("override", func(t *testing.T) {
		SetViperValue(t, "cache.backend", "memory")
		SetViperValue(t, "server.addr", ":9999")
		assert.Equal(t, "memory", viper.GetString("cache.backend"))
	})

	assert.Equal(t, "file", viper.GetString("cache.backend"))
	assert.False(t, viper.IsSet("server.addr"))
}

func TestSetupTestCache(t *testing.T) {
	ResetViper(t)
	env := NewTestEnv(t)

	dir := SetupTestCache(t, env)

	assert.Equal(t, env.Path("cache"), dir)
	assert.Equal(t, dir, viper.GetString("cache.dir"))
	assert.Equal(t, env.Path("cache.db"), viper.GetString("cache.dbfile"))
	assert.Equal(t, "1h", viper.GetString("cache.ttl"))
}

func TestTMDBServer(t *testing.T) {
	server := NewTMDBServer(t, map[string]string{
		"/genre/movie/list":       `{"genres": []}`,
		"/movie/top_rated?page=2": `{"page": 2}`,
	})
	server.Handle("/movie/top_rated", `{"page": 1}`)

	get := func(path string) (int, map[string]any) {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(body, &decoded))
		return resp.StatusCode, decoded
	}

	status, body := get("/movie/top_rated?page=2")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["page"])

	_, body = get("/movie/top_rated?page=1")
	assert.EqualValues(t, 1, body["page"])

	status, body = get("/person/1")
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, 34, body["status_code"])

	assert.Equal(t, 3, server.Calls())
}
