// Package prereq checks that the host provides the programs and interpreter
// versions the bootstrap depends on.
package prereq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/ports"
)

// VersionRequirement is a minimum major.minor version.
type VersionRequirement struct {
	MinMajor int
	MinMinor int
}

// ParseRequirement builds a requirement from textual components.
func ParseRequirement(minMajor, minMinor string) (VersionRequirement, error) {
	if strings.TrimSpace(minMajor) == "" {
		return VersionRequirement{}, config.NewMissingParameterError("min_major")
	}
	if strings.TrimSpace(minMinor) == "" {
		return VersionRequirement{}, config.NewMissingParameterError("min_minor")
	}
	maj, err := strconv.Atoi(strings.TrimSpace(minMajor))
	if err != nil || maj < 0 {
		return VersionRequirement{}, config.NewUserError(config.ErrCodeConfigInvalid, fmt.Sprintf("invalid min_major %q", minMajor))
	}
	minor, err := strconv.Atoi(strings.TrimSpace(minMinor))
	if err != nil || minor < 0 {
		return VersionRequirement{}, config.NewUserError(config.ErrCodeConfigInvalid, fmt.Sprintf("invalid min_minor %q", minMinor))
	}
	return VersionRequirement{MinMajor: maj, MinMinor: minor}, nil
}

// String renders the requirement as "major.minor".
func (r VersionRequirement) String() string {
	return fmt.Sprintf("%d.%d", r.MinMajor, r.MinMinor)
}

// SatisfiedBy reports whether version (a dotted string such as "3.7" or
// "2.13.4") meets the requirement.
func (r VersionRequirement) SatisfiedBy(version string) bool {
	v := canonical(version)
	if v == "" {
		return false
	}
	return semver.Compare(v, "v"+r.String()) >= 0
}

var leadingVersion = regexp.MustCompile(`^\d+(\.\d+){0,2}`)

// canonical converts "2.20.1.windows.1" or "3.7" to a semver string.
func canonical(version string) string {
	m := leadingVersion.FindString(strings.TrimSpace(version))
	if m == "" {
		return ""
	}
	v := "v" + m
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// pythonVersionScript prints major.minor and runs on any Python release.
const pythonVersionScript = `import sys; sys.stdout.write("%d.%d" % tuple(sys.version_info[:2]))`

// Checker performs prerequisite checks.
type Checker struct {
	runner   ports.CommandRunner
	locator  ports.CommandLocator
	logger   ports.Logger
	prompter ports.Prompter
	out      io.Writer
	batch    bool
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithPrompter sets the prompter used when a check wants confirmation.
func WithPrompter(p ports.Prompter) CheckerOption {
	return func(c *Checker) {
		c.prompter = p
	}
}

// WithOutput sets where user-facing check results are printed.
func WithOutput(w io.Writer) CheckerOption {
	return func(c *Checker) {
		c.out = w
	}
}

// WithBatch suppresses prompts and chatter.
func WithBatch(enabled bool) CheckerOption {
	return func(c *Checker) {
		c.batch = enabled
	}
}

// NewChecker creates a Checker.
func NewChecker(runner ports.CommandRunner, locator ports.CommandLocator, logger ports.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{runner: runner, locator: locator, logger: logger, out: io.Discard}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasCommand reports whether name resolves on PATH.
func (c *Checker) HasCommand(name string) bool {
	if name == "" {
		return false
	}
	_, err := c.locator.LookPath(name)
	return err == nil
}

// RequireCommands fails on the first name that is not on PATH.
func (c *Checker) RequireCommands(names ...string) error {
	if len(names) == 0 {
		return config.NewMissingParameterError("at least one command")
	}
	for _, name := range names {
		if name == "" {
			return config.NewMissingParameterError("command")
		}
		if !c.HasCommand(name) {
			return config.NewMissingPrerequisiteError(name)
		}
	}
	return nil
}

// InterpreterVersion runs interpreter and returns its "major.minor".
func (c *Checker) InterpreterVersion(ctx context.Context, interpreter string) (string, error) {
	if interpreter == "" {
		interpreter = "python"
	}
	res, err := c.runner.Run(ctx, interpreter, "-c", pythonVersionScript)
	if err != nil {
		if isNotFound(err) {
			return "", config.NewMissingPrerequisiteError(interpreter)
		}
		return "", fmt.Errorf("running %s: %w", interpreter, err)
	}
	if !res.Success() {
		return "", config.NewExternalCommandFailedError(interpreter, res.ExitCode, res.Stderr)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CheckMinVersion verifies that interpreter reports at least req.
// A failure to run the interpreter surfaces its own exit code.
func (c *Checker) CheckMinVersion(ctx context.Context, component, interpreter string, req VersionRequirement) error {
	version, err := c.InterpreterVersion(ctx, interpreter)
	if err != nil {
		return err
	}
	c.logger.Debug(ctx, "interpreter version", ports.F("interpreter", interpreter), ports.F("version", version))
	if !req.SatisfiedBy(version) {
		return config.NewVersionTooLowError(component, req.MinMajor, req.MinMinor).
			WithContext(interpreter)
	}
	return nil
}

// MinGitVersion is the oldest git release the stack tooling supports.
const MinGitVersion = "1.8.3"

// GitCheck inspects the installed git. It never fails the run by itself;
// proceed is false only when the operator declined to continue with an
// outdated git.
func (c *Checker) GitCheck(ctx context.Context) (proceed bool, err error) {
	if !c.HasCommand("git") {
		c.logger.Debug(ctx, "git not found on PATH")
		return true, nil
	}

	res, err := c.runner.Run(ctx, "git", "--version")
	if err != nil || !res.Success() {
		c.logger.Warn(ctx, "unable to determine git version")
		return true, nil
	}

	fields := strings.Fields(res.Stdout)
	if len(fields) < 3 {
		c.logger.Warn(ctx, "unexpected git --version output", ports.F("output", res.Stdout))
		return true, nil
	}
	version := fields[2]

	if v := canonical(version); v != "" && semver.Compare(v, "v"+MinGitVersion) >= 0 {
		if !c.batch {
			fmt.Fprintf(c.out, "Detected git version %s. OK.\n", version)
		}
		return true, nil
	}

	if c.batch {
		c.logger.Debug(ctx, "outdated git in batch mode", ports.F("version", version))
		return true, nil
	}

	fmt.Fprintf(c.out, "Detected git version %s.\n", version)
	fmt.Fprintf(c.out, "The LSST stack needs git >= %s to fetch its packages.\n", MinGitVersion)
	if c.prompter != nil && c.prompter.Confirm("Would you like to try continuing without git?") {
		fmt.Fprintln(c.out, "Continuing without git")
		return true, nil
	}
	fmt.Fprintln(c.out, "Okay install git and rerun the script.")
	return false, nil
}

// MinPythonVersion is the oldest interpreter the stack runs on.
var MinPythonVersion = VersionRequirement{MinMajor: 3, MinMinor: 6}

// PythonCheck verifies that interpreter exists and meets MinPythonVersion.
func (c *Checker) PythonCheck(ctx context.Context, interpreter string) error {
	if interpreter == "" {
		interpreter = "python"
	}
	if !c.HasCommand(interpreter) {
		return config.NewMissingPrerequisiteError(interpreter).
			WithSuggestion("Unable to locate python.")
	}

	err := c.CheckMinVersion(ctx, "LSST stack", interpreter, MinPythonVersion)
	if err != nil {
		if config.IsUserError(err, config.ErrCodeVersionTooLow) {
			return config.GetUserError(err).
				WithSuggestion(fmt.Sprintf("LSST stack requires Python >= %s", MinPythonVersion))
		}
		return err
	}

	if !c.batch {
		fmt.Fprintf(c.out, "In addition to Python >= %s, some LSST packages require "+
			"additional system libraries; see the installation guide for your platform.\n", MinPythonVersion)
	}
	return nil
}

// isNotFound reports whether err means the program itself is missing.
func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
