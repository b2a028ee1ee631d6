package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/adapters/logging"
	"github.com/lsst/lsst/internal/testutil/mocks"
	"github.com/lsst/lsst/internal/ports"
)

func TestRealRunner_Run_Success(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "hello\n", result.Stdout)
}

func TestRealRunner_Run_ExitCodePropagates(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	require.NoError(t, err, "a non-zero exit is a result, not an error")
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestRealRunner_Run_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewRealRunner().Run(context.Background(), "nonexistent-command-12345")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRealRunner_RunIn(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o600))

	result, err := NewRealRunner().RunIn(context.Background(), dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "marker")
}

func TestRealRunner_Run_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRealRunner().Run(ctx, "sleep", "10")
	assert.Error(t, err)
}

func TestPathLocator(t *testing.T) {
	t.Parallel()

	path, err := PathLocator{}.LookPath("sh")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	_, err = PathLocator{}.LookPath("nonexistent-command-12345")
	assert.True(t, IsNotFound(err))
}

func TestDryRunRunner(t *testing.T) {
	t.Parallel()

	next := mocks.NewCommandRunner()
	next.AddResult("uname", []string{"-s"}, ports.CommandResult{Stdout: "Linux\n"})
	dry := NewDryRunRunner(next, logging.NewNopLogger(), "uname")

	result, err := dry.Run(context.Background(), "bash", "/tmp/installer.sh", "-b", "-p", "/opt/conda")
	require.NoError(t, err)
	assert.True(t, result.Success())

	result, err = dry.Run(context.Background(), "uname", "-s")
	require.NoError(t, err)
	assert.Equal(t, "Linux\n", result.Stdout)

	calls := next.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "uname", calls[0].Command)
}
