// Package loader writes the loadLSST.* activation scripts.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/ports"
	"github.com/lsst/lsst/internal/templates"
)

// Dialect is a supported shell.
type Dialect string

// Supported dialects.
const (
	Bash Dialect = "bash"
	Csh  Dialect = "csh"
	Ksh  Dialect = "ksh"
	Zsh  Dialect = "zsh"
)

// Dialects lists every dialect in generation order.
var Dialects = []Dialect{Bash, Csh, Ksh, Zsh}

var titleCaser = cases.Title(language.English)

// ParseDialect maps a shell name onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dialects {
		if d == known {
			return d, nil
		}
	}
	return "", config.NewUserError(config.ErrCodeConfigInvalid, fmt.Sprintf("unsupported shell %q", s)).
		WithSuggestion("Valid values: bash, csh, ksh, zsh")
}

// DisplayName returns the dialect name for human output.
func (d Dialect) DisplayName() string {
	return titleCaser.String(string(d))
}

// ScriptName returns the loader file name for d.
func (d Dialect) ScriptName() string {
	return "loadLSST." + string(d)
}

// Params parameterizes one loader script.
type Params struct {
	FileName string
	Pkgroot  string
	// Home defaults to the directory holding FileName.
	Home string
	// CondaPath is optional; without it the script does not activate conda.
	CondaPath string
	EnvName   string
}

// Generator renders and writes loader scripts.
type Generator struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(fs ports.FileSystem, logger ports.Logger) *Generator {
	return &Generator{fs: fs, logger: logger}
}

// Generate overwrites p.FileName with the loader for dialect.
func (g *Generator) Generate(ctx context.Context, dialect Dialect, p Params) error {
	switch {
	case p.FileName == "":
		return config.NewMissingParameterError("file_name")
	case p.Pkgroot == "":
		return config.NewMissingParameterError("eups_pkgroot")
	}

	home := p.Home
	if home == "" {
		home = filepath.Dir(p.FileName)
	}
	out, err := templates.GenerateLoader(templates.LoaderData{
		Dialect:   string(dialect),
		Home:      home,
		Pkgroot:   p.Pkgroot,
		CondaPath: p.CondaPath,
		EnvName:   p.EnvName,
	})
	if err != nil {
		return fmt.Errorf("rendering %s loader: %w", dialect, err)
	}

	if err := g.fs.WriteFile(p.FileName, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p.FileName, err)
	}
	g.logger.Debug(ctx, "wrote loader", ports.F("path", p.FileName), ports.F("shell", string(dialect)))
	return nil
}

// ScriptsRequest describes a full set of loader scripts.
type ScriptsRequest struct {
	Prefix    string
	Pkgroot   string
	CondaPath string
	EnvName   string
}

// Script is one generated loader.
type Script struct {
	Dialect Dialect
	Path    string
}

// CreateLoadScripts writes <prefix>/loadLSST.<shell> for every dialect.
func (g *Generator) CreateLoadScripts(ctx context.Context, req ScriptsRequest) ([]Script, error) {
	switch {
	case req.Prefix == "":
		return nil, config.NewMissingParameterError("prefix")
	case req.Pkgroot == "":
		return nil, config.NewMissingParameterError("eups_pkgroot")
	}

	names := make([]string, len(Dialects))
	for i, d := range Dialects {
		names[i] = d.DisplayName()
	}
	g.logger.Info(ctx, "Creating startup scripts", ports.F("shells", strings.Join(names, ", ")))

	scripts := make([]Script, 0, len(Dialects))
	for _, d := range Dialects {
		s := Script{Dialect: d, Path: filepath.Join(req.Prefix, d.ScriptName())}
		err := g.Generate(ctx, d, Params{
			FileName:  s.Path,
			Pkgroot:   req.Pkgroot,
			Home:      req.Prefix,
			CondaPath: req.CondaPath,
			EnvName:   req.EnvName,
		})
		if err != nil {
			return scripts, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// Greeting renders the closing message for scripts.
func Greeting(scripts []Script) (string, error) {
	data := templates.GreetingData{Scripts: make([]templates.GreetingScript, len(scripts))}
	for i, s := range scripts {
		data.Scripts[i] = templates.GreetingScript{Path: s.Path, Dialect: string(s.Dialect)}
	}
	return templates.GenerateGreeting(data)
}
