package fetch

import (
	"context"

	"github.com/lsst/lsst/internal/ports"
)

// DryRunFetcher logs downloads instead of performing them.
type DryRunFetcher struct {
	logger ports.Logger
}

// NewDryRunFetcher creates a DryRunFetcher.
func NewDryRunFetcher(logger ports.Logger) *DryRunFetcher {
	return &DryRunFetcher{logger: logger}
}

// Fetch implements ports.Fetcher.
func (d *DryRunFetcher) Fetch(ctx context.Context, url, dest string) error {
	d.logger.Info(ctx, "noop: fetch "+url, ports.F("dest", dest))
	return nil
}

var _ ports.Fetcher = (*DryRunFetcher)(nil)
