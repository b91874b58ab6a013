package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv rewrites golden files from the current output when set to "true".
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// AssertGoldenJSON compares a JSON response or CLI output with the golden
// file at path, ignoring formatting and key order. In update mode the golden
// file is rewritten with two-space indentation instead.
func AssertGoldenJSON(t *testing.T, path string, actual []byte) {
	t.Helper()

	if os.Getenv(UpdateGoldenEnv) == "true" {
		var indented bytes.Buffer
		require.NoError(t, json.Indent(&indented, bytes.TrimSpace(actual), "", "  "), "output is not JSON")
		indented.WriteByte('\n')

		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, indented.Bytes(), 0o644))
		t.Logf("Updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file %s, run with %s=true to create it", path, UpdateGoldenEnv)
	assert.JSONEq(t, string(expected), string(actual), "output differs from %s", path)
}
