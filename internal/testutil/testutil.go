// Package testutil provides sandboxed filesystem, viper and TMDB stubs for lumo tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a per-test scratch directory for cache files, config files,
// library databases and downloaded posters. Paths may not leave it.
type TestEnv struct {
	t    *testing.T
	root string
}

// NewTestEnv creates a TestEnv under t.TempDir, removed when the test ends.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, root: t.TempDir()}
}

// RootDir is the scratch directory itself.
func (e *TestEnv) RootDir() string {
	return e.root
}

// Path joins elem onto the scratch directory and fails the test when the
// result points outside it.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	path := filepath.Join(append([]string{e.root}, elem...)...)
	rel, err := filepath.Rel(e.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		e.t.Fatalf("path %q escapes test directory %q", path, e.root)
	}
	return path
}

// WriteFile writes content to name, creating parent directories.
func (e *TestEnv) WriteFile(name string, content []byte) string {
	e.t.Helper()

	path := e.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatalf("failed to create directory for %q: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		e.t.Fatalf("failed to write %q: %v", path, err)
	}
	return path
}

// WriteConfig writes a config.yaml with the given YAML body and returns its path.
func (e *TestEnv) WriteConfig(yaml string) string {
	e.t.Helper()
	return e.WriteFile("config.yaml", []byte(yaml))
}

// FileExists reports whether name exists as a regular file.
func (e *TestEnv) FileExists(name string) bool {
	e.t.Helper()

	info, err := os.Stat(e.Path(name))
	return err == nil && info.Mode().IsRegular()
}
