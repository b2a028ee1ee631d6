package command

import (
	"context"

	"github.com/lsst/lsst/internal/ports"
)

// DryRunRunner logs commands instead of executing them.
// Read-only probes listed in passthrough still reach the wrapped runner so
// platform detection keeps working during a rehearsal.
type DryRunRunner struct {
	next        ports.CommandRunner
	logger      ports.Logger
	passthrough map[string]bool
}

// NewDryRunRunner wraps next. Commands named in passthrough are executed.
func NewDryRunRunner(next ports.CommandRunner, logger ports.Logger, passthrough ...string) *DryRunRunner {
	pt := make(map[string]bool, len(passthrough))
	for _, p := range passthrough {
		pt[p] = true
	}
	return &DryRunRunner{next: next, logger: logger, passthrough: pt}
}

// Run logs the command and reports success.
func (d *DryRunRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return d.RunIn(ctx, "", command, args...)
}

// RunIn logs the command and reports success.
func (d *DryRunRunner) RunIn(ctx context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	if d.passthrough[command] {
		return d.next.RunIn(ctx, dir, command, args...)
	}
	call := ports.CommandCall{Dir: dir, Command: command, Args: args}
	d.logger.Info(ctx, "noop: "+call.String(), ports.F("dir", dir))
	return ports.CommandResult{}, nil
}

var _ ports.CommandRunner = (*DryRunRunner)(nil)
