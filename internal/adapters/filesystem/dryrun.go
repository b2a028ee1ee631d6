package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lsst/lsst/internal/ports"
)

// DryRunFileSystem reads through to the wrapped file system and logs
// mutations instead of performing them.
type DryRunFileSystem struct {
	ports.FileSystem
	logger ports.Logger
}

// NewDryRunFileSystem wraps next.
func NewDryRunFileSystem(next ports.FileSystem, logger ports.Logger) *DryRunFileSystem {
	return &DryRunFileSystem{FileSystem: next, logger: logger}
}

func (d *DryRunFileSystem) note(op, path string) {
	d.logger.Info(context.Background(), "noop: "+op, ports.F("path", path))
}

// WriteFile logs the write.
func (d *DryRunFileSystem) WriteFile(path string, _ []byte, _ os.FileMode) error {
	d.note("write", path)
	return nil
}

// CreateSymlink logs the link.
func (d *DryRunFileSystem) CreateSymlink(target, link string) error {
	d.logger.Info(context.Background(), "noop: symlink", ports.F("link", link), ports.F("target", target))
	return nil
}

// Remove logs the removal.
func (d *DryRunFileSystem) Remove(path string) error {
	d.note("remove", path)
	return nil
}

// RemoveAll logs the removal.
func (d *DryRunFileSystem) RemoveAll(path string) error {
	d.note("remove -r", path)
	return nil
}

// MkdirAll logs the directory creation.
func (d *DryRunFileSystem) MkdirAll(path string, _ os.FileMode) error {
	d.note("mkdir", path)
	return nil
}

// CreateTemp returns a plausible temporary path without creating it.
func (d *DryRunFileSystem) CreateTemp(dir, pattern string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, strings.Replace(pattern, "*", "noop", 1)), nil
}

var _ ports.FileSystem = (*DryRunFileSystem)(nil)
