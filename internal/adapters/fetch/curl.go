// Package fetch provides ports.Fetcher implementations.
package fetch

import (
	"context"
	"fmt"

	"github.com/lsst/lsst/internal/adapters/command"
	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/ports"
)

// CurlFetcher downloads through the curl binary.
// It invokes `<curl> <opts...> -L <url> --output <dest>`.
type CurlFetcher struct {
	runner ports.CommandRunner
	curl   string
	opts   []string
}

// NewCurlFetcher creates a fetcher running curl (or a compatible binary) via runner.
func NewCurlFetcher(runner ports.CommandRunner, curl string, opts []string) *CurlFetcher {
	if curl == "" {
		curl = "curl"
	}
	return &CurlFetcher{runner: runner, curl: curl, opts: opts}
}

// Fetch downloads url to dest.
func (f *CurlFetcher) Fetch(ctx context.Context, url, dest string) error {
	args := make([]string, 0, len(f.opts)+4)
	for _, o := range f.opts {
		if o != "" {
			args = append(args, o)
		}
	}
	args = append(args, "-L", url, "--output", dest)

	res, err := f.runner.Run(ctx, f.curl, args...)
	if err != nil {
		if command.IsNotFound(err) {
			return config.NewMissingPrerequisiteError(f.curl)
		}
		return fmt.Errorf("running %s: %w", f.curl, err)
	}
	if !res.Success() {
		return config.NewExternalCommandFailedError(f.curl, res.ExitCode, res.Stderr).WithContext(url)
	}
	return nil
}

var _ ports.Fetcher = (*CurlFetcher)(nil)
