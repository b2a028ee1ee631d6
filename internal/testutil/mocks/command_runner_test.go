package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/ports"
)

func TestCommandRunner_AddResult(t *testing.T) {
	t.Parallel()

	runner := NewCommandRunner()
	runner.AddResult("uname", []string{"-s"}, ports.CommandResult{Stdout: "Darwin\n"})

	result, err := runner.Run(context.Background(), "uname", "-s")
	require.NoError(t, err)
	assert.Equal(t, "Darwin\n", result.Stdout)
}

func TestCommandRunner_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewCommandRunner().Run(context.Background(), "unknown", "command")
	assert.Error(t, err)
}

func TestCommandRunner_AddError(t *testing.T) {
	t.Parallel()

	runner := NewCommandRunner()
	boom := errors.New("boom")
	runner.AddError("curl", []string{"-L"}, boom)

	_, err := runner.Run(context.Background(), "curl", "-L")
	assert.ErrorIs(t, err, boom)
}

func TestCommandRunner_FallbackAndHooks(t *testing.T) {
	t.Parallel()

	runner := NewCommandRunner()
	runner.SetFallback(ports.CommandResult{ExitCode: 0})

	var seenDir string
	runner.OnCommand("make", func(dir string, _ []string) { seenDir = dir })

	_, err := runner.RunIn(context.Background(), "/src/eups", "make", "install")
	require.NoError(t, err)
	assert.Equal(t, "/src/eups", seenDir)

	assert.Equal(t, []string{"make install"}, runner.CallStrings())
	assert.Equal(t, "/src/eups", runner.Calls()[0].Dir)
}

func TestCommandRunner_Reset(t *testing.T) {
	t.Parallel()

	runner := NewCommandRunner()
	runner.AddResult("git", []string{"--version"}, ports.CommandResult{})
	_, _ = runner.Run(context.Background(), "git", "--version")

	runner.Reset()

	assert.Empty(t, runner.Calls())
	_, err := runner.Run(context.Background(), "git", "--version")
	assert.Error(t, err)
}
