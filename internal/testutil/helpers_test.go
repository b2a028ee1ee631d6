package testutil

import (
	"path/filepath"
	"testing"
)

func TestWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteFile(t, dir, "stack/current/ups_db/.keep", "")

	AssertFileExists(t, path)
	AssertFileEquals(t, path, "")
}

func TestWriteExecutable(t *testing.T) {
	t.Parallel()

	path := WriteExecutable(t, t.TempDir(), "bin/python", "#!/bin/sh\necho Python 3.7.6\n")
	AssertExecutable(t, path)
	AssertFileContains(t, path, "Python 3.7.6")
}

func TestInstallTree(t *testing.T) {
	t.Parallel()

	root := InstallTree(t, "python", "eups", "stack")
	for _, d := range []string{"python", "eups", "stack"} {
		AssertFileExists(t, filepath.Join(root, d))
	}
	AssertFileNotExists(t, filepath.Join(root, "conda"))
}
