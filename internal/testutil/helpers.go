// Package testutil provides helpers for tests that touch a real install tree.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to dir/name, creating parent directories.
// Returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteExecutable writes an executable script to dir/name.
func WriteExecutable(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := WriteFile(t, dir, name, content)
	require.NoError(t, os.Chmod(path, 0o755))
	return path
}

// InstallTree creates an LSST_HOME-shaped directory with the given
// relative subdirectories and returns its root.
func InstallTree(t testing.TB, subdirs ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, d := range subdirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	return root
}
