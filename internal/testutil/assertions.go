package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertFileExists asserts that path exists.
func AssertFileExists(t testing.TB, path string, msgAndArgs ...interface{}) {
	t.Helper()
	_, err := os.Lstat(path)
	assert.NoError(t, err, msgAndArgs...)
}

// AssertFileNotExists asserts that nothing exists at path.
func AssertFileNotExists(t testing.TB, path string, msgAndArgs ...interface{}) {
	t.Helper()
	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err), msgAndArgs...)
}

// AssertFileContains asserts that the file at path contains expected.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	if !assert.NoError(t, err, msgAndArgs...) {
		return
	}
	assert.True(t, strings.Contains(string(data), expected), msgAndArgs...)
}

// AssertFileEquals asserts that the file at path holds exactly expected.
func AssertFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	if !assert.NoError(t, err, msgAndArgs...) {
		return
	}
	assert.Equal(t, expected, string(data), msgAndArgs...)
}

// AssertSymlink asserts that path is a symlink pointing at target.
func AssertSymlink(t testing.TB, path, target string, msgAndArgs ...interface{}) {
	t.Helper()
	dest, err := os.Readlink(path)
	if !assert.NoError(t, err, msgAndArgs...) {
		return
	}
	assert.Equal(t, target, dest, msgAndArgs...)
}

// AssertExecutable asserts that path is a regular file with an execute bit.
func AssertExecutable(t testing.TB, path string, msgAndArgs ...interface{}) {
	t.Helper()
	info, err := os.Stat(path)
	if !assert.NoError(t, err, msgAndArgs...) {
		return
	}
	assert.True(t, info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0, msgAndArgs...)
}
