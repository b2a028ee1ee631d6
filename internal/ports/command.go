// Package ports defines the interfaces the installer core uses to reach the host.
package ports

import (
	"context"
	"strings"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Dir     string
	Command string
	Args    []string
}

// String renders the call the way a shell user would type it.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes external programs.
type CommandRunner interface {
	// Run executes command in the current working directory.
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)

	// RunIn executes command with dir as its working directory.
	RunIn(ctx context.Context, dir, command string, args ...string) (CommandResult, error)
}

// CommandLocator resolves program names against PATH.
type CommandLocator interface {
	LookPath(name string) (string, error)
}
