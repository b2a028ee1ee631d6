package condaenv

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lsst/lsst/internal/domain/config"
)

// Kind selects the manifest format and the conda verbs used to apply it.
type Kind string

// Supported manifest kinds.
const (
	KindYML  Kind = "yml"
	KindLock Kind = "lock"
	KindTxt  Kind = "txt"
)

const (
	lsstswOrigin = "https://raw.githubusercontent.com/lsst/lsstsw"
	splenvOrigin = "https://raw.githubusercontent.com/lsst/scipipe_conda_env"

	envNamePrefix = "lsst-scipipe-"
)

// ParseKind maps a config value onto a Kind. Empty selects yml.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindYML, nil
	case KindYML, KindLock, KindTxt:
		return k, nil
	default:
		return "", config.NewUserError(config.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown manifest kind %q", s)).
			WithSuggestion("Valid values: yml, lock, txt")
	}
}

// ManifestURL returns the remote manifest for kind at ref. yml and txt
// manifests come from lsstsw and are keyed by python major; lock files
// come from scipipe_conda_env.
func ManifestURL(kind Kind, ref, pythonMajor, subdir string) string {
	if kind == KindLock {
		return fmt.Sprintf("%s/%s/etc/conda-%s.lock", splenvOrigin, ref, subdir)
	}
	return fmt.Sprintf("%s/%s/etc/conda%s_packages-%s.%s", lsstswOrigin, ref, pythonMajor, subdir, kind)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// EnvName returns the deterministic environment name for a git ref.
func EnvName(ref string) string {
	return envNamePrefix + unsafeNameChars.ReplaceAllString(ref, "_")
}

// manifestSummary is the subset of a conda environment.yml worth logging.
type manifestSummary struct {
	Name         string        `yaml:"name"`
	Channels     []string      `yaml:"channels"`
	Dependencies []interface{} `yaml:"dependencies"`
}
