package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lsst/lsst/internal/adapters/archive"
	"github.com/lsst/lsst/internal/adapters/command"
	"github.com/lsst/lsst/internal/adapters/fetch"
	"github.com/lsst/lsst/internal/adapters/filesystem"
	"github.com/lsst/lsst/internal/adapters/logging"
	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/platform"
	"github.com/lsst/lsst/internal/domain/prereq"
	"github.com/lsst/lsst/internal/ports"
	"github.com/lsst/lsst/internal/tui"
	"github.com/lsst/lsst/internal/tui/ui"
)

// flagBindings maps config keys to the flags that set them directly.
var flagBindings = map[string]string{
	"batch":            "batch",
	"continue":         "continue",
	"noop":             "noop",
	"skip_git":         "skip-git",
	"preserve_pkgroot": "preserve-pkgroot",
	"conda_path":       "conda-path",
	"fetcher":          "fetcher",
	"log_level":        "log-level",
	"log_format":       "log-format",
	"debug":            "debug",
}

// switchPairs are on/off flag pairs; the "off" flag wins when both are given.
var switchPairs = []struct {
	key, on, off string
}{
	{"use_tarballs", "tarballs", "no-tarballs"},
	{"use_eupspkg", "eupspkg", "no-eupspkg"},
}

// readOnlyProbes still run during a dry run so platform detection works.
var readOnlyProbes = []string{"uname", "sw_vers", "git"}

// app holds the adapters for one invocation.
type app struct {
	cfg       config.Config
	logger    ports.Logger
	runner    ports.CommandRunner
	fs        ports.FileSystem
	fetcher   ports.Fetcher
	extractor ports.Extractor
	locator   ports.CommandLocator
	prompter  ports.Prompter
	out       io.Writer
	styles    ui.Styles
	attended  bool
}

func newApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	v := viper.New()
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	attended := isTerminal(out)

	cfg, err := config.Load(v, config.LoadOptions{
		ConfigFile: opts.cfgFile,
		Attended:   attended,
	})
	if err != nil {
		return nil, err
	}

	level, err := ports.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, config.NewUserError(config.ErrCodeConfigInvalid, err.Error()).
			WithSuggestion("Valid values: debug, info, warn, error")
	}
	if cfg.Debug {
		level = ports.LevelDebug
	}
	jsonLogs := cfg.LogFormat == "json"
	logger := logging.NewConsoleLogger(
		logging.WithOutput(cmd.ErrOrStderr()),
		logging.WithLevel(level),
		logging.WithJSONFormat(jsonLogs),
		logging.WithColor(attended && !jsonLogs),
		logging.WithTimestamp(jsonLogs),
	).With(ports.F("run", uuid.NewString()))

	a := &app{
		cfg:      cfg,
		logger:   logger,
		locator:  command.PathLocator{},
		prompter: newPrompter(cmd.InOrStdin(), out),
		out:      out,
		styles:   ui.PlainStyles(),
		attended: attended,
	}
	if attended {
		a.styles = ui.DefaultStyles()
		if isTerminal(cmd.InOrStdin()) {
			a.prompter = tui.NewConfirmPrompter(cmd.InOrStdin(), out, a.styles)
		}
	}
	a.wireAdapters(cmd.Context(), cmd.ErrOrStderr())
	return a, nil
}

// wireAdapters picks real or dry-run adapters.
func (a *app) wireAdapters(ctx context.Context, errOut io.Writer) {
	var runner ports.CommandRunner = command.NewRealRunner()
	var fs ports.FileSystem = filesystem.NewRealFileSystem()
	var fetcher ports.Fetcher
	var extractor ports.Extractor = archive.NewTarGz()

	switch a.cfg.Fetcher {
	case config.FetcherNative:
		var progress fetch.Progress = fetch.NewLogProgress(ctx, a.logger)
		if a.attended && !a.cfg.Batch && isTerminal(errOut) {
			progress = tui.NewDownloadDisplay(errOut, a.styles)
		}
		fetcher = fetch.NewHTTPFetcher(fetch.WithProgress(progress))
	default:
		fetcher = fetch.NewCurlFetcher(runner, a.cfg.Curl, a.cfg.CurlArgs())
	}

	if a.cfg.Noop {
		runner = command.NewDryRunRunner(runner, a.logger, readOnlyProbes...)
		fs = filesystem.NewDryRunFileSystem(fs, a.logger)
		fetcher = fetch.NewDryRunFetcher(a.logger)
		extractor = archive.NewDryRun(a.logger)
	}

	a.runner = runner
	a.fs = fs
	a.fetcher = fetcher
	a.extractor = extractor
}

// context attaches the logger to the command's context.
func (a *app) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ports.ContextWithLogger(ctx, a.logger)
}

func (a *app) prober() *platform.Prober {
	return platform.NewProber(a.runner, a.fs, a.logger,
		platform.WithOverrides(platform.Overrides{
			Family:   a.cfg.OSFamily,
			Release:  a.cfg.OSRelease,
			Platform: a.cfg.Platform,
			Compiler: a.cfg.Compiler,
		}),
		platform.WithDebug(a.cfg.Debug),
	)
}

func (a *app) checker() *prereq.Checker {
	return prereq.NewChecker(a.runner, a.locator, a.logger,
		prereq.WithPrompter(a.prompter),
		prereq.WithOutput(a.out),
		prereq.WithBatch(a.cfg.Batch),
	)
}

// bindFlags registers flag overrides on v.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagBindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	for _, p := range switchPairs {
		if flags.Changed(p.on) {
			v.Set(p.key, true)
		}
		if flags.Changed(p.off) {
			v.Set(p.key, false)
		}
	}

	if flags.Changed("python2") {
		v.Set("python_version", "2")
	}
	return nil
}

func isTerminal(stream interface{}) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// linePrompter asks yes/no questions on a line-oriented terminal.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm returns true only for an explicit yes.
func (p *linePrompter) Confirm(question string) bool {
	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", question)
	response, err := p.in.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

var _ ports.Prompter = (*linePrompter)(nil)
