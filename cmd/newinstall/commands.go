package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lsst/lsst/internal/domain/eups"
	"github.com/lsst/lsst/internal/domain/loader"
	"github.com/lsst/lsst/internal/domain/up2date"
)

func newLoaderCmd(opts *globalOptions) *cobra.Command {
	var (
		prefix    string
		pkgroot   string
		condaPath string
		envName   string
		shell     string
	)

	cmd := &cobra.Command{
		Use:   "loader",
		Short: "Write the loadLSST.* shell scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx := a.context(cmd)
			if prefix == "" {
				prefix = a.cfg.Home
			}
			if pkgroot == "" {
				if pkgroot, err = a.pkgroot(ctx, eups.NewLayout(a.cfg)); err != nil {
					return err
				}
			}

			gen := loader.NewGenerator(a.fs, a.logger)
			if shell == "" {
				scripts, err := gen.CreateLoadScripts(ctx, loader.ScriptsRequest{
					Prefix:    prefix,
					Pkgroot:   pkgroot,
					CondaPath: condaPath,
					EnvName:   envName,
				})
				if err != nil {
					return err
				}
				return a.greet(scripts)
			}

			d, err := loader.ParseDialect(shell)
			if err != nil {
				return err
			}
			path := filepath.Join(prefix, d.ScriptName())
			if err := gen.Generate(ctx, d, loader.Params{
				FileName:  path,
				Pkgroot:   pkgroot,
				Home:      prefix,
				CondaPath: condaPath,
				EnvName:   envName,
			}); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "%s loader written to %s\n", d.DisplayName(), path)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&prefix, "prefix", "", "directory to write the scripts to (default: LSST_HOME)")
	f.StringVar(&pkgroot, "pkgroot", "", "EUPS_PKGROOT baked into the scripts")
	f.StringVar(&condaPath, "conda-path", "", "conda installation the scripts activate")
	f.StringVar(&envName, "env-name", "", "conda environment the scripts activate")
	f.StringVar(&shell, "shell", "", "only write the script for this shell (bash, csh, ksh, zsh)")
	_ = cmd.RegisterFlagCompletionFunc("shell", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(loader.Dialects))
		for i, d := range loader.Dialects {
			names[i] = string(d)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var python string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check prerequisites without installing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx := a.context(cmd)

			if err := eups.CheckProblemVariables(os.LookupEnv, a.cfg.PreservePkgroot); err != nil {
				return err
			}
			checker := a.checker()
			if err := checker.RequireCommands(a.requiredCommands()...); err != nil {
				return err
			}
			if err := requireGit(ctx, checker); err != nil {
				return err
			}
			if python != "" {
				if err := checker.PythonCheck(ctx, python); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(a.out, a.styles.Success.Render("All prerequisites satisfied."))
			return err
		},
	}
	cmd.Flags().StringVar(&python, "python", "", "also check this interpreter against the stack's minimum")
	return cmd
}

func newUp2dateCmd(opts *globalOptions) *cobra.Command {
	var (
		url  string
		self string
	)

	cmd := &cobra.Command{
		Use:   "up2date",
		Short: "Compare a local newinstall.sh with the published copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if url == "" {
				url = a.cfg.Up2dateURL
			}
			if self == "" {
				self = a.cfg.Up2dateSelf
			}
			if self == "" {
				self = "newinstall.sh"
			}

			c := up2date.NewChecker(a.fetcher, a.fs, a.logger, url, self)
			outcome := c.Check(a.context(cmd))
			if outcome == up2date.Differ {
				s := c.Last()
				_, err = fmt.Fprintf(a.out, "%s %s\n", outcome,
					a.styles.Help.Render(fmt.Sprintf("(+%d -%d lines)", s.Added, s.Removed)))
				return err
			}
			_, err = fmt.Fprintln(a.out, outcome)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "published copy to compare against")
	cmd.Flags().StringVar(&self, "self", "", "local copy (default: LSST_UP2DATE_SELF or ./newinstall.sh)")
	return cmd
}

func newPlatformCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Print the detected platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			d, err := a.prober().Probe(a.context(cmd))
			if err != nil {
				return err
			}
			subdir, _ := d.CondaSubdir()
			rows := [][2]string{
				{"osfamily", string(d.Family)},
				{"release", d.Release},
				{"arch", d.Arch},
				{"platform", d.Platform},
				{"compiler", d.Toolchain},
				{"conda subdir", subdir},
			}
			for _, r := range rows {
				if _, err := fmt.Fprintf(a.out, "%-13s %s\n", r[0]+":", r[1]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			data, err := a.cfg.Render(format)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "yaml", "output format (yaml, toml)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// Version information set by build flags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "newinstall %s\n", version)
			_, _ = fmt.Fprintf(out, "  commit: %s\n", commit)
			_, _ = fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

