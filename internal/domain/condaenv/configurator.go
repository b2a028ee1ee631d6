// Package condaenv creates or updates the named conda environment that
// hosts the LSST stack.
package condaenv

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/platform"
	"github.com/lsst/lsst/internal/ports"
)

// Prober reports the host platform.
type Prober interface {
	Probe(ctx context.Context) (platform.Descriptor, error)
}

// EnvironmentSpec describes the environment to materialize.
type EnvironmentSpec struct {
	PythonMajor string
	GitRef      string
	// Prefix is the Miniconda root. Empty means conda is taken from PATH.
	Prefix   string
	Channels []string
	Kind     Kind
	// EnvName overrides the name derived from GitRef.
	EnvName string
	Clean   bool
}

// Name returns the environment name.
func (s EnvironmentSpec) Name() string {
	if s.EnvName != "" {
		return s.EnvName
	}
	return EnvName(s.GitRef)
}

// Configurator drives conda through the command runner.
type Configurator struct {
	prober  Prober
	fetcher ports.Fetcher
	runner  ports.CommandRunner
	fs      ports.FileSystem
	logger  ports.Logger
	tempDir string
}

// Option configures a Configurator.
type Option func(*Configurator)

// WithTempDir sets where manifests are downloaded.
func WithTempDir(dir string) Option {
	return func(c *Configurator) {
		c.tempDir = dir
	}
}

// NewConfigurator creates a Configurator.
func NewConfigurator(prober Prober, fetcher ports.Fetcher, runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, opts ...Option) *Configurator {
	c := &Configurator{prober: prober, fetcher: fetcher, runner: runner, fs: fs, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfigChannels registers each whitespace separated channel. Channels are
// appended to the existing list, never replacing it.
func (c *Configurator) ConfigChannels(ctx context.Context, prefix, channels string) error {
	tokens := strings.Fields(channels)
	if len(tokens) == 0 {
		return config.NewMissingParameterError("channels")
	}
	for _, ch := range tokens {
		if err := c.conda(ctx, prefix, "config", "--add", "channels", ch); err != nil {
			return err
		}
	}
	return nil
}

// Apply fetches the manifest for the host platform and applies it to the
// named environment.
func (c *Configurator) Apply(ctx context.Context, spec EnvironmentSpec) error {
	switch {
	case spec.PythonMajor == "":
		return config.NewMissingParameterError("python version")
	case spec.GitRef == "":
		return config.NewMissingParameterError("lsstsw git ref")
	}
	kind := spec.Kind
	if kind == "" {
		kind = KindYML
	}

	d, err := c.prober.Probe(ctx)
	subdir, ok := d.CondaSubdir()
	if !ok {
		ue := config.NewUnsupportedPlatformError("configure miniconda env", d.Raw())
		if err != nil && !config.IsUserError(err, config.ErrCodeUnsupportedPlatform) {
			return ue.WithUnderlying(err)
		}
		return ue
	}

	if len(spec.Channels) > 0 {
		if err := c.ConfigChannels(ctx, spec.Prefix, strings.Join(spec.Channels, " ")); err != nil {
			return err
		}
	}

	url := ManifestURL(kind, spec.GitRef, spec.PythonMajor, subdir)
	tmp, err := c.fs.CreateTemp(c.tempDir, "newinstall-*."+string(kind))
	if err != nil {
		return fmt.Errorf("creating temporary manifest: %w", err)
	}
	defer func() {
		if rerr := c.fs.Remove(tmp); rerr != nil {
			c.logger.Debug(ctx, "removing manifest", ports.F("path", tmp), ports.F("error", rerr))
		}
	}()

	if err := c.fetcher.Fetch(ctx, url, tmp); err != nil {
		return fmt.Errorf("downloading %s: %w", path.Base(url), err)
	}

	name := spec.Name()
	log := c.logger.With(ports.F("env", name), ports.F("kind", string(kind)))
	log.Info(ctx, "Configuring conda environment", ports.F("manifest", url))

	switch kind {
	case KindTxt:
		return c.conda(ctx, spec.Prefix, "install", "--yes", "--name", name, "--file", tmp)
	case KindLock:
		exists, err := c.envExists(ctx, spec.Prefix, name)
		if err != nil {
			return err
		}
		verb := "create"
		if exists {
			verb = "install"
		}
		log.Debug(ctx, "applying lock file", ports.F("verb", verb))
		if err := c.conda(ctx, spec.Prefix, verb, "--yes", "--name", name, "--file", tmp); err != nil {
			return err
		}
	default:
		c.summarize(ctx, log, tmp)
		if err := c.conda(ctx, spec.Prefix, "env", "update", "--name", name, "--quiet", "--file", tmp); err != nil {
			return err
		}
	}

	if err := c.conda(ctx, spec.Prefix, "env", "export", "--name", name); err != nil {
		return err
	}
	if err := c.activate(ctx, spec.Prefix, name); err != nil {
		return err
	}
	if spec.Clean {
		return c.conda(ctx, spec.Prefix, "clean", "--all", "--yes")
	}
	return nil
}

func (c *Configurator) condaBin(prefix string) string {
	if prefix == "" {
		return "conda"
	}
	return filepath.Join(prefix, "bin", "conda")
}

func (c *Configurator) conda(ctx context.Context, prefix string, args ...string) error {
	_, err := c.run(ctx, c.condaBin(prefix), args...)
	return err
}

func (c *Configurator) run(ctx context.Context, bin string, args ...string) (ports.CommandResult, error) {
	res, err := c.runner.Run(ctx, bin, args...)
	if err != nil {
		return res, fmt.Errorf("running %s: %w", bin, err)
	}
	if !res.Success() {
		call := ports.CommandCall{Command: path.Base(bin), Args: args}
		return res, config.NewExternalCommandFailedError(call.String(), res.ExitCode, res.Stderr)
	}
	return res, nil
}

// activate sources the environment in a throwaway shell to prove it loads.
func (c *Configurator) activate(ctx context.Context, prefix, name string) error {
	script := "activate"
	if prefix != "" {
		script = filepath.Join(prefix, "bin", "activate")
	}
	_, err := c.run(ctx, "bash", "-c", fmt.Sprintf("source %s %s", script, name))
	return err
}

func (c *Configurator) envExists(ctx context.Context, prefix, name string) (bool, error) {
	res, err := c.run(ctx, c.condaBin(prefix), "env", "list", "--json")
	if err != nil {
		return false, err
	}
	// a dry run reports nothing
	if strings.TrimSpace(res.Stdout) == "" {
		return false, nil
	}
	var listing struct {
		Envs []string `json:"envs"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &listing); err != nil {
		return false, fmt.Errorf("parsing conda env list: %w", err)
	}
	for _, env := range listing.Envs {
		if filepath.Base(env) == name {
			return true, nil
		}
	}
	return false, nil
}

func (c *Configurator) summarize(ctx context.Context, log ports.Logger, file string) {
	data, err := c.fs.ReadFile(file)
	if err != nil {
		log.Debug(ctx, "manifest not readable", ports.F("error", err))
		return
	}
	var m manifestSummary
	if err := yaml.Unmarshal(data, &m); err != nil {
		log.Warn(ctx, "manifest is not valid yaml", ports.F("error", err))
		return
	}
	log.Debug(ctx, "manifest",
		ports.F("name", m.Name),
		ports.F("channels", strings.Join(m.Channels, ",")),
		ports.F("dependencies", len(m.Dependencies)))
}
