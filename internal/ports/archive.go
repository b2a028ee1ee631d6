package ports

import "context"

// Extractor unpacks an archive into a directory.
type Extractor interface {
	// Extract unpacks src below dest and returns the archive's single
	// top-level directory, or dest when entries do not share one.
	Extract(ctx context.Context, src, dest string) (string, error)
}
