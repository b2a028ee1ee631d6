// Package miniconda downloads and runs the Miniconda batch installer.
package miniconda

import (
	"context"
	"fmt"
	"strings"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/platform"
	"github.com/lsst/lsst/internal/ports"
)

// DefaultBaseURL is the upstream Miniconda installer mirror.
const DefaultBaseURL = config.DefaultMinicondaBaseURL

// Prober reports the host platform.
type Prober interface {
	Probe(ctx context.Context) (platform.Descriptor, error)
}

// InstallRequest describes one Miniconda installation.
type InstallRequest struct {
	PythonVersion    string
	MinicondaVersion string
	Prefix           string
	BaseURL          string
}

// Validate checks required fields in a fixed order.
func (r InstallRequest) Validate() error {
	switch {
	case r.PythonVersion == "":
		return config.NewMissingParameterError("python version")
	case r.MinicondaVersion == "":
		return config.NewMissingParameterError("miniconda version")
	case r.Prefix == "":
		return config.NewMissingParameterError("prefix")
	}
	return nil
}

// InstallerName returns the upstream installer file name for a platform suffix.
func (r InstallRequest) InstallerName(suffix string) string {
	return fmt.Sprintf("Miniconda%s-%s-%s.sh", r.PythonVersion, r.MinicondaVersion, suffix)
}

// InstallerURL returns the download URL for a platform suffix.
func (r InstallRequest) InstallerURL(suffix string) string {
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + r.InstallerName(suffix)
}

// Installer performs the download-and-run sequence.
type Installer struct {
	prober  Prober
	fetcher ports.Fetcher
	runner  ports.CommandRunner
	fs      ports.FileSystem
	logger  ports.Logger
	tempDir string
}

// Option configures an Installer.
type Option func(*Installer)

// WithTempDir sets the directory for downloaded installers.
func WithTempDir(dir string) Option {
	return func(i *Installer) {
		i.tempDir = dir
	}
}

// NewInstaller creates an Installer.
func NewInstaller(prober Prober, fetcher ports.Fetcher, runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, opts ...Option) *Installer {
	i := &Installer{prober: prober, fetcher: fetcher, runner: runner, fs: fs, logger: logger}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install fetches the installer for the host and runs it in batch mode
// against req.Prefix. An existing prefix is left alone. The downloaded
// file is removed on every path.
func (i *Installer) Install(ctx context.Context, req InstallRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if i.fs.Exists(req.Prefix) {
		i.logger.Info(ctx, "miniconda already present, skipping install", ports.F("prefix", req.Prefix))
		return nil
	}

	d, err := i.prober.Probe(ctx)
	suffix, ok := d.InstallerSuffix()
	if !ok {
		ue := config.NewUnsupportedPlatformError("install miniconda", d.Raw())
		if err != nil && !config.IsUserError(err, config.ErrCodeUnsupportedPlatform) {
			return ue.WithUnderlying(err)
		}
		return ue
	}

	name := req.InstallerName(suffix)
	url := req.InstallerURL(suffix)
	i.logger.Info(ctx, "Deploying "+name, ports.F("prefix", req.Prefix))

	tmp, err := i.fs.CreateTemp(i.tempDir, "*."+tempSafe(name))
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", name, err)
	}
	defer func() {
		if rerr := i.fs.Remove(tmp); rerr != nil {
			i.logger.Debug(ctx, "removing installer", ports.F("path", tmp), ports.F("error", rerr))
		}
	}()

	if err := i.fetcher.Fetch(ctx, url, tmp); err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}

	res, err := i.runner.Run(ctx, "bash", tmp, "-b", "-p", req.Prefix)
	if err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}
	if !res.Success() {
		return config.NewExternalCommandFailedError("bash "+name, res.ExitCode, res.Stderr).WithContext(req.Prefix)
	}
	return nil
}

// tempSafe strips characters that would be misread as a temp-file
// placeholder or path separator.
func tempSafe(name string) string {
	return strings.NewReplacer("*", "_", "/", "_", `\`, "_").Replace(name)
}
