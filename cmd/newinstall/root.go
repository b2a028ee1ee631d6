package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lsst/lsst/internal/domain/config"
)

const usageLine = "usage: newinstall [-23bcnhptTsS] [-P <path>] [--skip-git]"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	cfgFile   string
	envFile   string
	verbose   bool
	logLevel  string
	logFormat string
	debug     bool
}

// cli is one command tree plus the state its callbacks record.
type cli struct {
	root          *cobra.Command
	opts          *globalOptions
	helpRequested bool
}

// Execute runs the CLI against the process arguments.
func Execute() error {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

// execute runs a fresh command tree. Asking the root command for help is a
// usage error, matching the historical script.
func execute(args []string, out, errOut io.Writer) error {
	c := newCLI()
	c.root.SetArgs(args)
	c.root.SetOut(out)
	c.root.SetErr(errOut)

	if err := c.root.Execute(); err != nil {
		return err
	}
	if c.helpRequested {
		return config.NewUsageError(usageLine)
	}
	return nil
}

func newCLI() *cli {
	c := &cli{opts: &globalOptions{}}

	root := &cobra.Command{
		Use:   "newinstall",
		Short: "Bootstrap a minimal LSST stack environment",
		Long: `newinstall installs a conda distribution, configures the LSST conda
environment from a pinned manifest, builds EUPS and writes the
loadLSST.{bash,csh,ksh,zsh} scripts into LSST_HOME.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			verboseErrors = c.opts.verbose
			loadDotenv(c.opts.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, c.opts)
			if err != nil {
				return err
			}
			return a.install(a.context(cmd))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.opts.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/newinstall/config.yaml)")
	pf.StringVar(&c.opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.BoolVarP(&c.opts.verbose, "verbose", "v", false, "show technical details on error")
	pf.StringVar(&c.opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&c.opts.logFormat, "log-format", "", "log format (text, json)")
	pf.BoolVar(&c.opts.debug, "debug", false, "print diagnostics for platform detection")

	f := root.Flags()
	f.BoolP("batch", "b", false, "batch mode (do not ask any questions)")
	f.BoolP("continue", "c", false, "continue in a non-empty LSST_HOME")
	f.BoolP("noop", "n", false, "no-op: log what would be done without doing it")
	f.BoolP("python2", "2", false, "use Python 2 (no longer supported)")
	f.BoolP("python3", "3", false, "use Python 3 (default)")
	f.BoolP("tarballs", "t", false, "prefer binary tarballs")
	f.BoolP("no-tarballs", "T", false, "do not use binary tarballs")
	f.BoolP("eupspkg", "s", false, "use EUPS source \"eupspkg\" packages")
	f.BoolP("no-eupspkg", "S", false, "do not use EUPS source \"eupspkg\" packages")
	f.BoolP("preserve-pkgroot", "p", false, "preserve an existing EUPS_PKGROOT")
	f.StringP("conda-path", "P", "", "use an existing conda installation at `path`")
	f.Bool("skip-git", false, "skip the git version check")
	f.String("fetcher", "", "download with curl or the native client (curl, native)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return config.NewUsageError(usageLine).WithUnderlying(err)
	})

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			defaultHelp(cmd, args)
			return
		}
		c.helpRequested = true
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	})

	root.AddCommand(
		newLoaderCmd(c.opts),
		newCheckCmd(c.opts),
		newUp2dateCmd(c.opts),
		newPlatformCmd(c.opts),
		newConfigCmd(c.opts),
		newVersionCmd(),
	)

	c.root = root
	return c
}

// loadDotenv reads KEY=value pairs without overriding the environment.
// A missing file is not an error.
func loadDotenv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// verboseErrors is set from --verbose once flags are parsed.
var verboseErrors bool

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error, verbose bool) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer. Usage errors
// are printed bare, preceded by the flag error that caused them.
func printErrorTo(w io.Writer, err error) {
	if ue := config.GetUserError(err); ue != nil && ue.Code == config.ErrCodeUsage {
		if ue.Underlying != nil {
			_, _ = fmt.Fprintf(w, "newinstall: %v\n", ue.Underlying)
		}
		_, _ = fmt.Fprintln(w, ue.Message)
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err, verboseErrors))
}
