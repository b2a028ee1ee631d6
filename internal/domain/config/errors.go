package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeMissingParameter      = "MISSING_PARAMETER"
	ErrCodeUnsupportedPlatform   = "UNSUPPORTED_PLATFORM"
	ErrCodeMissingPrerequisite   = "MISSING_PREREQUISITE"
	ErrCodeVersionTooLow         = "VERSION_TOO_LOW"
	ErrCodeExternalCommandFailed = "EXTERNAL_COMMAND_FAILED"
	ErrCodeProblemVariables      = "PROBLEM_VARIABLES"
	ErrCodeUsage                 = "USAGE"
	ErrCodeConfigInvalid         = "CONFIG_INVALID"
	ErrCodeConfigParse           = "CONFIG_PARSE"
	ErrCodeAborted               = "ABORTED"
)

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "MISSING_PARAMETER")
	Message    string // User-friendly error message
	Context    string // Path, URL or command the error relates to
	Suggestion string // Actionable suggestion to fix the error
	ExitCode   int    // Process exit status to surface, 0 when unspecified
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}

	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, "\n  Exit code: %d", e.ExitCode)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// NewUserError creates a new UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a copy of e with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	c := *e
	c.Context = ctx
	return &c
}

// WithSuggestion returns a copy of e with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a copy of e wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}

// NewMissingParameterError reports a required argument that was not supplied.
// The message mirrors the historical "<name> is required" wording.
func NewMissingParameterError(name string) *UserError {
	return &UserError{
		Code:    ErrCodeMissingParameter,
		Message: fmt.Sprintf("%s is required", name),
	}
}

// NewUnsupportedPlatformError reports an OS family the installer has no mapping for.
// action completes the sentence "Cannot <action>".
func NewUnsupportedPlatformError(action, raw string) *UserError {
	return &UserError{
		Code:       ErrCodeUnsupportedPlatform,
		Message:    fmt.Sprintf("Cannot %s: unsupported platform %s", action, raw),
		Suggestion: "Only Linux (RedHat family) and macOS hosts are supported.",
	}
}

// NewMissingPrerequisiteError reports a program that is not on PATH.
func NewMissingPrerequisiteError(tool string) *UserError {
	return &UserError{
		Code:       ErrCodeMissingPrerequisite,
		Message:    fmt.Sprintf("prog: %s is required", tool),
		Suggestion: fmt.Sprintf("Install %s and make sure it is on your PATH.", tool),
	}
}

// NewVersionTooLowError reports a component whose version is below the minimum.
func NewVersionTooLowError(component string, minMajor, minMinor int) *UserError {
	return &UserError{
		Code:    ErrCodeVersionTooLow,
		Message: fmt.Sprintf("%s requires version %d.%d or newer", component, minMajor, minMinor),
	}
}

// NewExternalCommandFailedError reports a non-zero exit from an external program.
func NewExternalCommandFailedError(command string, exitCode int, stderr string) *UserError {
	ue := &UserError{
		Code:     ErrCodeExternalCommandFailed,
		Message:  fmt.Sprintf("%s failed with exit code %d", command, exitCode),
		ExitCode: exitCode,
	}
	if s := strings.TrimSpace(stderr); s != "" {
		ue.Underlying = errors.New(s)
	}
	return ue
}

// NewUsageError reports a command-line parsing failure.
func NewUsageError(message string) *UserError {
	return &UserError{
		Code:     ErrCodeUsage,
		Message:  message,
		ExitCode: 2,
	}
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

// ExitCodeOf returns the process status to exit with for err.
// A wrapped non-zero external exit code wins; any other error maps to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if ue := GetUserError(err); ue != nil && ue.ExitCode != 0 {
		return ue.ExitCode
	}
	return 1
}
