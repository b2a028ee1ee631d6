package eups

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/link"
	"github.com/lsst/lsst/internal/domain/prereq"
	"github.com/lsst/lsst/internal/ports"
)

// MinPythonVersion is the oldest interpreter EUPS builds against.
var MinPythonVersion = prereq.VersionRequirement{MinMajor: 2, MinMinor: 6}

// VersionChecker verifies an interpreter's version.
type VersionChecker interface {
	CheckMinVersion(ctx context.Context, component, interpreter string, req prereq.VersionRequirement) error
}

// Linker publishes a directory behind a stable link.
type Linker interface {
	LinkCurrent(ctx context.Context, target, name string) error
}

// InstallRequest describes one EUPS source build.
type InstallRequest struct {
	// Python is the interpreter EUPS is configured with.
	Python string
	// Ref is the release or git revision to build.
	Ref string
	// Prefix is the install directory, see Layout.EupsDir.
	Prefix string
	// EupsPath is the stack directory, see Layout.EupsPath.
	EupsPath string
	BuildDir string
	// Repo defaults to config.DefaultEupsGitRepo.
	Repo string
}

// Request builds an InstallRequest from the layout.
func (l Layout) Request(python, repo string) InstallRequest {
	return InstallRequest{
		Python:   python,
		Ref:      l.EupsSlug(),
		Prefix:   l.EupsDir(),
		EupsPath: l.EupsPath(),
		BuildDir: l.BuildDir(),
		Repo:     repo,
	}
}

// TarballURL returns the GitHub source archive for the request.
func (r InstallRequest) TarballURL() string {
	repo := r.Repo
	if repo == "" {
		repo = config.DefaultEupsGitRepo
	}
	return strings.TrimSuffix(repo, "/") + "/archive/" + r.Ref + ".tar.gz"
}

// Installer builds EUPS from source.
type Installer struct {
	fetcher   ports.Fetcher
	runner    ports.CommandRunner
	fs        ports.FileSystem
	extractor ports.Extractor
	checker   VersionChecker
	linker    Linker
	logger    ports.Logger
	tempDir   string
	dryRun    bool
}

// Option configures an Installer.
type Option func(*Installer)

// WithTempDir sets where the source tarball is downloaded.
func WithTempDir(dir string) Option {
	return func(i *Installer) {
		i.tempDir = dir
	}
}

// WithDryRun skips interpreter validation, which cannot succeed when the
// interpreter was itself never installed.
func WithDryRun(enabled bool) Option {
	return func(i *Installer) {
		i.dryRun = enabled
	}
}

// NewInstaller creates an Installer.
func NewInstaller(
	fetcher ports.Fetcher,
	runner ports.CommandRunner,
	fs ports.FileSystem,
	extractor ports.Extractor,
	checker VersionChecker,
	linker Linker,
	logger ports.Logger,
	opts ...Option,
) *Installer {
	i := &Installer{
		fetcher:   fetcher,
		runner:    runner,
		fs:        fs,
		extractor: extractor,
		checker:   checker,
		linker:    linker,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install validates the interpreter, then downloads, configures and
// installs EUPS into req.Prefix and links it as current. An existing
// build at req.Prefix is reused.
func (i *Installer) Install(ctx context.Context, req InstallRequest) error {
	if err := i.validatePython(ctx, req.Python); err != nil {
		return err
	}
	switch {
	case req.Ref == "":
		return config.NewMissingParameterError("eups version")
	case req.Prefix == "":
		return config.NewMissingParameterError("eups dir")
	case req.EupsPath == "":
		return config.NewMissingParameterError("eups path")
	case req.BuildDir == "":
		return config.NewMissingParameterError("build dir")
	}

	log := i.logger.With(ports.F("eups", req.Ref))

	if i.fs.Exists(filepath.Join(req.Prefix, "bin", "setups.sh")) {
		log.Info(ctx, "EUPS already installed", ports.F("prefix", req.Prefix))
		return i.linker.LinkCurrent(ctx, req.Prefix, link.DefaultName)
	}

	log.Info(ctx, fmt.Sprintf("Installing EUPS (%s)...", req.Ref))

	tarball, err := i.fs.CreateTemp(i.tempDir, "eups-*.tar.gz")
	if err != nil {
		return fmt.Errorf("creating temporary file for eups: %w", err)
	}
	defer i.cleanup(ctx, tarball, i.fs.Remove)

	if err := i.fetcher.Fetch(ctx, req.TarballURL(), tarball); err != nil {
		return fmt.Errorf("downloading eups %s: %w", req.Ref, err)
	}

	if err := i.fs.MkdirAll(req.BuildDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", req.BuildDir, err)
	}
	defer i.cleanup(ctx, req.BuildDir, i.fs.RemoveAll)

	src, err := i.extractor.Extract(ctx, tarball, req.BuildDir)
	if err != nil {
		return fmt.Errorf("unpacking eups %s: %w", req.Ref, err)
	}

	if err := i.runIn(ctx, src, "./configure",
		"--prefix="+req.Prefix,
		"--with-eups="+req.EupsPath,
		"--with-python="+req.Python,
	); err != nil {
		return err
	}
	if err := i.runIn(ctx, src, "make", "install"); err != nil {
		return err
	}

	return i.linker.LinkCurrent(ctx, req.Prefix, link.DefaultName)
}

func (i *Installer) validatePython(ctx context.Context, python string) error {
	if i.dryRun {
		i.logger.Debug(ctx, "noop: skipping eups python validation", ports.F("python", python))
		return nil
	}

	info, err := i.fs.GetFileInfo(python)
	if python == "" || err != nil || !info.Executable() {
		return config.NewUserError(config.ErrCodeMissingPrerequisite,
			fmt.Sprintf("Cannot find or execute '%s'.", python)).
			WithSuggestion("Set EUPS_PYTHON to a functioning Python >= " + MinPythonVersion.String() + " interpreter and rerun.")
	}

	err = i.checker.CheckMinVersion(ctx, "EUPS", python, MinPythonVersion)
	if config.IsUserError(err, config.ErrCodeVersionTooLow) {
		return config.NewUserError(config.ErrCodeVersionTooLow,
			fmt.Sprintf("EUPS requires Python %s or newer", MinPythonVersion)).
			WithContext(python)
	}
	return err
}

func (i *Installer) runIn(ctx context.Context, dir, command string, args ...string) error {
	res, err := i.runner.RunIn(ctx, dir, command, args...)
	if err != nil {
		return fmt.Errorf("running %s: %w", command, err)
	}
	if !res.Success() {
		call := ports.CommandCall{Command: command, Args: args}
		return config.NewExternalCommandFailedError(call.String(), res.ExitCode, res.Stderr).WithContext(dir)
	}
	return nil
}

func (i *Installer) cleanup(ctx context.Context, p string, remove func(string) error) {
	if err := remove(p); err != nil {
		i.logger.Debug(ctx, "cleanup failed", ports.F("path", p), ports.F("error", err))
	}
}
