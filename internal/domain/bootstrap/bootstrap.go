// Package bootstrap sequences installing, linking, validating and
// configuring a conda distribution.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/statekit"

	"github.com/lsst/lsst/internal/domain/condaenv"
	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/link"
	"github.com/lsst/lsst/internal/domain/miniconda"
	"github.com/lsst/lsst/internal/ports"
)

// Installer materializes a Miniconda distribution.
type Installer interface {
	Install(ctx context.Context, req miniconda.InstallRequest) error
}

// Configurator populates the conda environment.
type Configurator interface {
	ConfigChannels(ctx context.Context, prefix, channels string) error
	Apply(ctx context.Context, spec condaenv.EnvironmentSpec) error
}

// Linker publishes a directory behind a stable link.
type Linker interface {
	LinkCurrent(ctx context.Context, target, name string) error
}

// EnvOptions are passed through to every environment the orchestrator
// configures.
type EnvOptions struct {
	Kind  condaenv.Kind
	Name  string
	Clean bool
}

// MinicondaParams drives the legacy miniconda-only bootstrap.
type MinicondaParams struct {
	PythonVersion    string
	MinicondaVersion string
	Prefix           string
	BaseURL          string
	LsstswRef        string
	Channels         string
}

// CondaParams drives the conda-distribution bootstrap.
type CondaParams struct {
	// ExistingPath, when set, is reused instead of installing.
	ExistingPath     string
	MinicondaVersion string
	Prefix           string
	BaseURL          string
	LsstswRef        string
	Channels         string
}

// Result reports what a run did.
type Result struct {
	// Path is the resolved distribution directory.
	Path string
	// Phases lists the phases entered, in order.
	Phases     []Phase
	Configured bool
}

// Orchestrator runs the bootstrap variants.
type Orchestrator struct {
	installer    Installer
	configurator Configurator
	linker       Linker
	runner       ports.CommandRunner
	logger       ports.Logger
	env          EnvOptions
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnvOptions sets the environment options.
func WithEnvOptions(env EnvOptions) Option {
	return func(o *Orchestrator) {
		o.env = env
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(installer Installer, configurator Configurator, linker Linker, runner ports.CommandRunner, logger ports.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		installer:    installer,
		configurator: configurator,
		linker:       linker,
		runner:       runner,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run tracks one pass through the machine.
type run struct {
	interp *statekit.Interpreter[runContext]
	result Result
	failed error
}

func (o *Orchestrator) start(path string) (*run, error) {
	r := &run{result: Result{Path: path}}
	interp, err := buildMachine(func(err error) { r.failed = err })
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}
	r.interp = interp
	r.interp.Start()
	return r, nil
}

func (r *run) phase() Phase {
	return Phase(r.interp.State().Value)
}

func (r *run) send(event statekit.EventType) {
	r.interp.Send(statekit.Event{Type: event})
	r.result.Phases = append(r.result.Phases, r.phase())
}

// fail moves the machine to failed and returns err.
func (r *run) fail(err error) (Result, error) {
	r.interp.Send(statekit.Event{
		Type:    EventFail,
		Payload: map[string]interface{}{"error": err},
	})
	r.result.Phases = append(r.result.Phases, r.phase())
	r.interp.Stop()
	return r.result, err
}

func (r *run) finish() (Result, error) {
	r.send(EventFinish)
	r.interp.Stop()
	return r.result, nil
}

// Miniconda installs <prefix>/python/miniconda<py>-<ver>, links it as
// current and, only when a lsstsw ref is given, configures the environment.
// Channels are registered only on that configure path.
func (o *Orchestrator) Miniconda(ctx context.Context, p MinicondaParams) (Result, error) {
	switch {
	case p.PythonVersion == "":
		return Result{}, config.NewMissingParameterError("python version")
	case p.MinicondaVersion == "":
		return Result{}, config.NewMissingParameterError("miniconda version")
	case p.Prefix == "":
		return Result{}, config.NewMissingParameterError("prefix")
	}

	slug := "miniconda" + p.PythonVersion + "-" + p.MinicondaVersion
	path := filepath.Join(p.Prefix, "python", slug)
	r, err := o.start(path)
	if err != nil {
		return Result{}, err
	}
	log := o.logger.With(ports.F("variant", "miniconda"), ports.F("path", path))

	r.send(EventInstall)
	log.Info(ctx, "Installing "+slug)
	if err := o.installer.Install(ctx, miniconda.InstallRequest{
		PythonVersion:    p.PythonVersion,
		MinicondaVersion: p.MinicondaVersion,
		Prefix:           path,
		BaseURL:          p.BaseURL,
	}); err != nil {
		return r.fail(err)
	}

	r.send(EventInstalled)
	if err := o.linker.LinkCurrent(ctx, path, link.DefaultName); err != nil {
		return r.fail(err)
	}

	if p.LsstswRef == "" {
		log.Debug(ctx, "no lsstsw ref, skipping environment")
		return r.finish()
	}

	r.send(EventConfigure)
	if p.Channels != "" {
		if err := o.configurator.ConfigChannels(ctx, path, p.Channels); err != nil {
			return r.fail(err)
		}
	}
	if err := o.configurator.Apply(ctx, o.spec(p.PythonVersion, p.LsstswRef, path, nil)); err != nil {
		return r.fail(err)
	}
	r.result.Configured = true
	return r.finish()
}

// condaPython is the only interpreter series the conda variant installs.
const condaPython = "3"

// CondaDistribution reuses ExistingPath or installs
// <prefix>/conda/miniconda3-<ver> and links it as current. The result is
// always validated by activating it in a subshell. The environment is
// configured whenever a lsstsw ref is given, with or without channels.
func (o *Orchestrator) CondaDistribution(ctx context.Context, p CondaParams) (Result, error) {
	switch {
	case p.MinicondaVersion == "":
		return Result{}, config.NewMissingParameterError("miniconda version")
	case p.Prefix == "":
		return Result{}, config.NewMissingParameterError("prefix")
	}

	path := p.ExistingPath
	if path == "" {
		path = filepath.Join(p.Prefix, "conda", "miniconda"+condaPython+"-"+p.MinicondaVersion)
	}
	r, err := o.start(path)
	if err != nil {
		return Result{}, err
	}
	log := o.logger.With(ports.F("variant", "conda"), ports.F("path", path))

	if p.ExistingPath != "" {
		r.send(EventReuse)
		log.Info(ctx, "Using existing conda installation")
	} else {
		r.send(EventInstall)
		log.Info(ctx, "Installing miniconda"+condaPython+"-"+p.MinicondaVersion)
		if err := o.installer.Install(ctx, miniconda.InstallRequest{
			PythonVersion:    condaPython,
			MinicondaVersion: p.MinicondaVersion,
			Prefix:           path,
			BaseURL:          p.BaseURL,
		}); err != nil {
			return r.fail(err)
		}
		r.send(EventInstalled)
		if err := o.linker.LinkCurrent(ctx, path, link.DefaultName); err != nil {
			return r.fail(err)
		}
	}

	r.send(EventValidate)
	if err := o.validate(ctx, path); err != nil {
		return r.fail(err)
	}

	if p.LsstswRef == "" {
		return r.finish()
	}

	r.send(EventConfigure)
	if err := o.configurator.Apply(ctx, o.spec(condaPython, p.LsstswRef, path, strings.Fields(p.Channels))); err != nil {
		return r.fail(err)
	}
	r.result.Configured = true
	return r.finish()
}

func (o *Orchestrator) spec(py, ref, prefix string, channels []string) condaenv.EnvironmentSpec {
	return condaenv.EnvironmentSpec{
		PythonMajor: py,
		GitRef:      ref,
		Prefix:      prefix,
		Channels:    channels,
		Kind:        o.env.Kind,
		EnvName:     o.env.Name,
		Clean:       o.env.Clean,
	}
}

// validate activates and deactivates the distribution in a subshell so the
// caller's environment is never left modified.
func (o *Orchestrator) validate(ctx context.Context, path string) error {
	script := fmt.Sprintf("source %s && conda deactivate", filepath.Join(path, "bin", "activate"))
	res, err := o.runner.Run(ctx, "bash", "-c", script)
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	if !res.Success() {
		return config.NewExternalCommandFailedError("conda activate", res.ExitCode, res.Stderr).WithContext(path)
	}
	return nil
}
