// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/lsst/lsst/internal/ports"
)

// RealRunner executes actual programs.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes a command and returns the result.
// A non-zero exit is reported through the result, not as an error.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.RunIn(ctx, "", command, args...)
}

// RunIn executes a command inside dir.
func (r *RealRunner) RunIn(ctx context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// PathLocator resolves programs on PATH.
type PathLocator struct{}

// LookPath reports the absolute path of name.
func (PathLocator) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// IsNotFound reports whether err means the program could not be located.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// Ensure RealRunner implements ports.CommandRunner.
var (
	_ ports.CommandRunner  = (*RealRunner)(nil)
	_ ports.CommandLocator = PathLocator{}
)
