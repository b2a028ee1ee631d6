// Package link publishes a versioned install directory behind a stable,
// relative symlink.
package link

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/ports"
)

// DefaultName is the conventional name of the stable link.
const DefaultName = "current"

// Manager maintains relative symlinks.
type Manager struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// NewManager creates a Manager.
func NewManager(fs ports.FileSystem, logger ports.Logger) *Manager {
	return &Manager{fs: fs, logger: logger}
}

// Plan describes the link LinkCurrent would create.
type Plan struct {
	// Link is the path of the symlink itself.
	Link string
	// Target is the link content, relative to the link's directory.
	Target string
}

// Resolve validates the arguments and computes the link to create. A
// relative name is placed next to target.
func Resolve(target, name string) (Plan, error) {
	if target == "" {
		return Plan{}, config.NewMissingParameterError("link target")
	}
	if name == "" {
		return Plan{}, config.NewMissingParameterError("link name")
	}
	target = filepath.Clean(target)
	dir := filepath.Dir(target)

	link := name
	if !filepath.IsAbs(name) {
		link = filepath.Join(dir, name)
	}
	return Plan{Link: link, Target: filepath.Base(target)}, nil
}

// Satisfied reports whether the link already points at the planned target.
func (m *Manager) Satisfied(p Plan) bool {
	isLink, current := m.fs.IsSymlink(p.Link)
	return isLink && current == p.Target
}

// LinkCurrent points name at the basename of target. Nothing is touched
// when the link is already correct; otherwise whatever occupies the link
// path is removed first.
func (m *Manager) LinkCurrent(ctx context.Context, target, name string) error {
	p, err := Resolve(target, name)
	if err != nil {
		return err
	}
	if m.Satisfied(p) {
		m.logger.Debug(ctx, "link up to date", ports.F("link", p.Link), ports.F("target", p.Target))
		return nil
	}

	if err := m.fs.RemoveAll(p.Link); err != nil {
		return fmt.Errorf("removing %s: %w", p.Link, err)
	}
	if err := m.fs.CreateSymlink(p.Target, p.Link); err != nil {
		return fmt.Errorf("linking %s: %w", p.Link, err)
	}
	m.logger.Info(ctx, "Linked "+p.Link, ports.F("target", p.Target))
	return nil
}
