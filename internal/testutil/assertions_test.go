package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssertSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	WriteFile(t, dir, "miniconda3-py37_4.8.2/bin/conda", "")
	link := filepath.Join(dir, "current")
	require.NoError(t, os.Symlink("miniconda3-py37_4.8.2", link))

	AssertSymlink(t, link, "miniconda3-py37_4.8.2")
	AssertFileExists(t, link)
}

func TestAssertFileNotExists_DanglingSymlinkCounts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	link := filepath.Join(dir, "current")
	require.NoError(t, os.Symlink("gone", link))

	AssertFileExists(t, link)
	AssertFileNotExists(t, filepath.Join(dir, "gone"))
}
