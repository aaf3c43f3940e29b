package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
}

func TestResolveROMPath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "app.sqc")
		touch(t, p)
		got, err := resolveROMPath(p, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(p), got)
	})

	t.Run("flag dir with extension appended", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "system.sqc"))
		got, err := resolveROMPath("system", dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "system.sqc"), got)
	})

	t.Run("env dir used when flag empty", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "lib.sqc"))
		t.Setenv(envRatufaROMDir, dir)
		got, err := resolveROMPath("lib.sqc", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "lib.sqc"), got)
	})

	t.Run("missing rom", func(t *testing.T) {
		t.Setenv(envRatufaROMDir, "")
		_, err := resolveROMPath("nope", "")
		assert.Error(t, err, "no rom dir")
		_, err = resolveROMPath("nope", t.TempDir())
		assert.Error(t, err, "missing rom")
		_, err = resolveROMPath("  ", t.TempDir())
		assert.Error(t, err, "empty name")
	})
}

func TestParseDefines(t *testing.T) {
	t.Parallel()

	got, err := parseDefines([]string{"a=1", "b=x=y", "flag"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "flag": ""}, got)

	_, err = parseDefines([]string{"=v"})
	assert.Error(t, err)
}
