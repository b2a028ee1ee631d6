// Package templates holds the text emitted into user-facing files: the
// per-shell loader scripts and the closing greeting.
package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// LoaderData parameterizes a loader script.
type LoaderData struct {
	Dialect   string
	Home      string
	Pkgroot   string
	CondaPath string
	EnvName   string
}

const bashLoader = `# This script is intended to be used with bash to load the minimal LSST environment
# Usage: source loadLSST.bash

export LSST_HOME="{{dq .Home}}"
{{- if .CondaPath}}

# Activate the LSST conda environment
export LSST_CONDA_ENV_NAME="${LSST_CONDA_ENV_NAME:-{{dqword .EnvName}}}"
# shellcheck disable=SC1091
source "{{dq .CondaPath}}/bin/activate" "$LSST_CONDA_ENV_NAME"
{{- end}}

# Bootstrap EUPS
EUPS_DIR="${LSST_HOME}/eups/current"
if [ -f "${EUPS_DIR}/bin/setups.sh" ]; then
    source "${EUPS_DIR}/bin/setups.sh"
fi

export EUPS_PKGROOT="${EUPS_PKGROOT:-{{dqword .Pkgroot}}}"
`

const kshLoader = `# This script is intended to be used with ksh to load the minimal LSST environment
# Usage: . loadLSST.ksh

export LSST_HOME="{{dq .Home}}"
{{- if .CondaPath}}

# Activate the LSST conda environment
export LSST_CONDA_ENV_NAME="${LSST_CONDA_ENV_NAME:-{{dqword .EnvName}}}"
. "{{dq .CondaPath}}/bin/activate" "$LSST_CONDA_ENV_NAME"
{{- end}}

# Bootstrap EUPS
EUPS_DIR="${LSST_HOME}/eups/current"
if [ -f "${EUPS_DIR}/bin/setups.sh" ]; then
    . "${EUPS_DIR}/bin/setups.sh"
fi

export EUPS_PKGROOT="${EUPS_PKGROOT:-{{dqword .Pkgroot}}}"
`

const zshLoader = `# This script is intended to be used with zsh to load the minimal LSST environment
# Usage: source loadLSST.zsh

export LSST_HOME="{{dq .Home}}"
{{- if .CondaPath}}

# Activate the LSST conda environment
export LSST_CONDA_ENV_NAME="${LSST_CONDA_ENV_NAME:-{{dqword .EnvName}}}"
source "{{dq .CondaPath}}/bin/activate" "$LSST_CONDA_ENV_NAME"
{{- end}}

# Bootstrap EUPS
EUPS_DIR="${LSST_HOME}/eups/current"
if [[ -f "${EUPS_DIR}/bin/setups.zsh" ]]; then
    source "${EUPS_DIR}/bin/setups.zsh"
elif [[ -f "${EUPS_DIR}/bin/setups.sh" ]]; then
    source "${EUPS_DIR}/bin/setups.sh"
fi

export EUPS_PKGROOT="${EUPS_PKGROOT:-{{dqword .Pkgroot}}}"
`

const cshLoader = `# This script is intended to be used with (t)csh to load the minimal LSST environment
# Usage: source loadLSST.csh

setenv LSST_HOME '{{sq .Home}}'
{{- if .CondaPath}}

# Activate the LSST conda environment
if ( ! $?LSST_CONDA_ENV_NAME ) then
    setenv LSST_CONDA_ENV_NAME '{{sq .EnvName}}'
endif
source '{{sq .CondaPath}}/etc/profile.d/conda.csh'
conda activate "$LSST_CONDA_ENV_NAME"
{{- end}}

# Bootstrap EUPS
set EUPS_DIR = "${LSST_HOME}/eups/current"
if ( -f "${EUPS_DIR}/bin/setups.csh" ) then
    source "${EUPS_DIR}/bin/setups.csh"
endif

if ( ! $?EUPS_PKGROOT ) then
    setenv EUPS_PKGROOT '{{sq .Pkgroot}}'
endif
`

var loaders = map[string]string{
	"bash": bashLoader,
	"csh":  cshLoader,
	"ksh":  kshLoader,
	"zsh":  zshLoader,
}

// GenerateLoader renders the loader script for data.Dialect.
func GenerateLoader(data LoaderData) (string, error) {
	src, ok := loaders[data.Dialect]
	if !ok {
		return "", fmt.Errorf("no loader template for %q", data.Dialect)
	}
	return render("loader-"+data.Dialect, src, data)
}

// GreetingData parameterizes the closing message.
type GreetingData struct {
	// Scripts lists "source" lines, one per generated loader.
	Scripts []GreetingScript
}

// GreetingScript is one loader entry in the greeting.
type GreetingScript struct {
	Path    string
	Dialect string
}

const greetingTemplateStr = `Bootstrap complete. To continue installing (and to use) the LSST stack type
one of:
{{range .Scripts}}
    source "{{.Path}}"  # for {{.Dialect}}
{{- end}}

Individual LSST packages may now be installed with the usual ` + "`eups distrib\ninstall`" + ` command.  For example, to install the latest weekly release of the
LSST Science Pipelines full distribution, use:

    eups distrib install -t w_latest lsst_distrib

An official release tag such as "v20_0_0" can also be used.

Next, read the documentation at:

    https://pipelines.lsst.io

and feel free to ask any questions via the LSST Community forum:

    https://community.lsst.org/c/support
`

// GenerateGreeting renders the message printed after a successful bootstrap.
func GenerateGreeting(data GreetingData) (string, error) {
	return render("greeting", greetingTemplateStr, data)
}

var (
	// inside "..." in sh, ksh and zsh
	dqReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	// inside "${VAR:-...}", where a bare brace ends the default
	dqWordReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`", "}", `\}`)
	// inside '...' in csh; sourced files see no history substitution
	sqReplacer = strings.NewReplacer(`'`, `'\''`)
)

var funcs = template.FuncMap{
	"dq":     dqReplacer.Replace,
	"dqword": dqWordReplacer.Replace,
	"sq":     sqReplacer.Replace,
}

func render(name, src string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
