package mocks

import (
	"os/exec"
	"path"

	"github.com/lsst/lsst/internal/ports"
)

// Locator resolves only the programs registered with it.
type Locator struct {
	paths map[string]string
}

// NewLocator creates a Locator that knows the given program names,
// placing each under /usr/bin.
func NewLocator(names ...string) *Locator {
	l := &Locator{paths: make(map[string]string)}
	for _, n := range names {
		l.Add(n, path.Join("/usr/bin", n))
	}
	return l
}

// Add registers name at p.
func (l *Locator) Add(name, p string) {
	l.paths[name] = p
}

// LookPath returns the registered path or exec.ErrNotFound.
func (l *Locator) LookPath(name string) (string, error) {
	if p, ok := l.paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

var _ ports.CommandLocator = (*Locator)(nil)
