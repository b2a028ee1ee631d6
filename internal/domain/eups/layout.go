// Package eups lays out the EUPS directories under LSST_HOME, computes the
// default package root and builds EUPS itself from source.
package eups

import (
	"path/filepath"

	"github.com/lsst/lsst/internal/domain/config"
)

// Layout derives names and paths from the effective configuration.
type Layout struct {
	Home             string
	PythonVersion    string
	MinicondaVersion string
	SplenvRef        string
	EupsVersion      string
	EupsGitRev       string
}

// NewLayout extracts the fields Layout needs from cfg.
func NewLayout(cfg config.Config) Layout {
	return Layout{
		Home:             cfg.Home,
		PythonVersion:    cfg.PythonVersion,
		MinicondaVersion: cfg.MinicondaVersion,
		SplenvRef:        cfg.SplenvRef,
		EupsVersion:      cfg.EupsVersion,
		EupsGitRev:       cfg.EupsGitRev,
	}
}

// MinicondaSlug is "miniconda<py>-<version>".
func (l Layout) MinicondaSlug() string {
	return "miniconda" + l.PythonVersion + "-" + l.MinicondaVersion
}

// PythonEnvSlug qualifies the miniconda slug with the environment ref.
func (l Layout) PythonEnvSlug() string {
	return l.MinicondaSlug() + "-" + l.SplenvRef
}

// EupsSlug names the EUPS build; a git revision wins over a release.
func (l Layout) EupsSlug() string {
	if l.EupsGitRev != "" {
		return l.EupsGitRev
	}
	return l.EupsVersion
}

// EupsBaseDir holds every EUPS build.
func (l Layout) EupsBaseDir() string {
	return filepath.Join(l.Home, "eups")
}

// EupsDir is the install prefix of this EUPS build.
func (l Layout) EupsDir() string {
	return filepath.Join(l.EupsBaseDir(), l.EupsSlug())
}

// EupsPath is the stack directory EUPS manages for this environment.
func (l Layout) EupsPath() string {
	return filepath.Join(l.Home, "stack", l.PythonEnvSlug())
}

// BuildDir is the scratch directory for source builds.
func (l Layout) BuildDir() string {
	return filepath.Join(l.Home, "_build")
}
