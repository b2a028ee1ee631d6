package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lsst/lsst/internal/domain/bootstrap"
	"github.com/lsst/lsst/internal/domain/condaenv"
	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/eups"
	"github.com/lsst/lsst/internal/domain/link"
	"github.com/lsst/lsst/internal/domain/loader"
	"github.com/lsst/lsst/internal/domain/miniconda"
	"github.com/lsst/lsst/internal/domain/prereq"
	"github.com/lsst/lsst/internal/domain/up2date"
	"github.com/lsst/lsst/internal/ports"
	"github.com/lsst/lsst/internal/tui"
)

// install runs the full bootstrap: sanity checks, conda distribution,
// environment, EUPS and the loader scripts.
func (a *app) install(ctx context.Context) error {
	cfg := a.cfg

	if err := eups.CheckProblemVariables(os.LookupEnv, cfg.PreservePkgroot); err != nil {
		return err
	}

	a.checkUp2date(ctx)

	if err := a.guardHome(ctx); err != nil {
		return err
	}

	checker := a.checker()
	if err := checker.RequireCommands(a.requiredCommands()...); err != nil {
		return err
	}
	if !cfg.SkipGit {
		if err := requireGit(ctx, checker); err != nil {
			return err
		}
	}

	if err := a.fs.MkdirAll(cfg.Home, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Home, err)
	}

	res, envName, err := a.bootstrap(ctx)
	if err != nil {
		return err
	}

	python := stackPython(res, envName)
	if !cfg.Noop {
		if err := checker.PythonCheck(ctx, python); err != nil {
			return err
		}
	}

	layout := eups.NewLayout(cfg)
	if cfg.InstallEups {
		eupsPython := cfg.EupsPython
		if eupsPython == "" {
			eupsPython = python
		}
		installer := eups.NewInstaller(a.fetcher, a.runner, a.fs, a.extractor, checker,
			link.NewManager(a.fs, a.logger), a.logger, eups.WithDryRun(cfg.Noop))
		if err := installer.Install(ctx, layout.Request(eupsPython, cfg.EupsGitRepo)); err != nil {
			return err
		}
	}

	pkgroot, err := a.pkgroot(ctx, layout)
	if err != nil {
		return err
	}

	gen := loader.NewGenerator(a.fs, a.logger)
	scripts, err := gen.CreateLoadScripts(ctx, loader.ScriptsRequest{
		Prefix:    cfg.Home,
		Pkgroot:   pkgroot,
		CondaPath: res.Path,
		EnvName:   envName,
	})
	if err != nil {
		return err
	}

	return a.greet(scripts)
}

// checkUp2date never fails the run.
func (a *app) checkUp2date(ctx context.Context) {
	if a.cfg.SkipUp2date || a.cfg.Up2dateSelf == "" {
		a.logger.Debug(ctx, "skipping up-to-date check")
		return
	}
	up2date.NewChecker(a.fetcher, a.fs, a.logger, a.cfg.Up2dateURL, a.cfg.Up2dateSelf).Check(ctx)
}

// guardHome refuses to install into a non-empty LSST_HOME unless -c was
// given or the operator confirms.
func (a *app) guardHome(ctx context.Context) error {
	if a.cfg.Continue || !a.fs.IsDir(a.cfg.Home) {
		return nil
	}
	entries, err := a.fs.ReadDir(a.cfg.Home)
	if err != nil || len(entries) == 0 {
		return nil
	}

	a.logger.Warn(ctx, "LSST_HOME is not empty", ports.F("path", a.cfg.Home), ports.F("entries", len(entries)))
	notEmpty := config.NewUserError(config.ErrCodeAborted, "LSST_HOME is not empty").
		WithContext(a.cfg.Home).
		WithSuggestion("Run in an empty directory, or pass -c to continue a previous install.")
	if a.cfg.Batch {
		return notEmpty
	}
	if !a.prompter.Confirm(fmt.Sprintf("%s is not empty. Continue anyway?", a.cfg.Home)) {
		return notEmpty
	}
	return nil
}

// requireGit aborts when git is too old and the user declines to go on
// without it.
func requireGit(ctx context.Context, checker *prereq.Checker) error {
	proceed, err := checker.GitCheck(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		return config.NewUserError(config.ErrCodeAborted, "aborted: git is too old")
	}
	return nil
}

func (a *app) requiredCommands() []string {
	cmds := []string{"bash"}
	if a.cfg.Fetcher != config.FetcherNative {
		cmds = append(cmds, a.cfg.Curl)
	}
	if a.cfg.InstallEups {
		cmds = append(cmds, "make")
	}
	return cmds
}

// bootstrap runs the configured variant and returns the environment name
// the loaders should activate.
func (a *app) bootstrap(ctx context.Context) (bootstrap.Result, string, error) {
	cfg := a.cfg

	kind, err := condaenv.ParseKind(cfg.ManifestKind)
	if err != nil {
		return bootstrap.Result{}, "", err
	}
	env := bootstrap.EnvOptions{Kind: kind, Name: cfg.CondaEnvName, Clean: cfg.CondaClean}

	prober := a.prober()
	orch := bootstrap.NewOrchestrator(
		miniconda.NewInstaller(prober, a.fetcher, a.runner, a.fs, a.logger),
		condaenv.NewConfigurator(prober, a.fetcher, a.runner, a.fs, a.logger),
		link.NewManager(a.fs, a.logger),
		a.runner,
		a.logger,
		bootstrap.WithEnvOptions(env),
	)

	var res bootstrap.Result
	if cfg.Bootstrap == config.BootstrapMiniconda {
		res, err = orch.Miniconda(ctx, bootstrap.MinicondaParams{
			PythonVersion:    cfg.PythonVersion,
			MinicondaVersion: cfg.MinicondaVersion,
			Prefix:           cfg.Home,
			BaseURL:          cfg.MinicondaBaseURL,
			LsstswRef:        cfg.LsstswRef,
			Channels:         cfg.CondaChannels,
		})
	} else {
		res, err = orch.CondaDistribution(ctx, bootstrap.CondaParams{
			ExistingPath:     cfg.CondaPath,
			MinicondaVersion: cfg.MinicondaVersion,
			Prefix:           cfg.Home,
			BaseURL:          cfg.MinicondaBaseURL,
			LsstswRef:        cfg.LsstswRef,
			Channels:         cfg.CondaChannels,
		})
	}
	if err != nil {
		return res, "", err
	}

	envName := "base"
	if res.Configured {
		envName = condaenv.EnvironmentSpec{GitRef: cfg.LsstswRef, EnvName: cfg.CondaEnvName}.Name()
	}
	a.logger.Debug(ctx, "bootstrap finished", ports.F("path", res.Path), ports.F("phases", fmt.Sprint(res.Phases)))
	return res, envName, nil
}

// stackPython is the interpreter inside the environment the loaders activate.
func stackPython(res bootstrap.Result, envName string) string {
	if envName == "" || envName == "base" {
		return filepath.Join(res.Path, "bin", "python")
	}
	return filepath.Join(res.Path, "envs", envName, "bin", "python")
}

// pkgroot returns EUPS_PKGROOT for the loaders: an explicit value wins,
// otherwise it is derived from the probed platform.
func (a *app) pkgroot(ctx context.Context, layout eups.Layout) (string, error) {
	if a.cfg.EupsPkgroot != "" {
		return a.cfg.EupsPkgroot, nil
	}
	d, err := a.prober().Probe(ctx)
	if err != nil && a.cfg.UseTarballs {
		return "", err
	}
	root, err := eups.DefaultPkgroot(a.cfg.PkgrootBaseURL, a.cfg.UseEupspkg, a.cfg.UseTarballs, d, layout.PythonEnvSlug())
	if err != nil {
		return "", err
	}
	if root == "" {
		return "", config.NewMissingParameterError("eups_pkgroot").
			WithSuggestion("Enable eupspkg sources (-s) or set EUPS_PKGROOT.")
	}
	return root, nil
}

func (a *app) greet(scripts []loader.Script) error {
	text, err := loader.Greeting(scripts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.out, tui.RenderGreeting(text, a.styles))
	return err
}
