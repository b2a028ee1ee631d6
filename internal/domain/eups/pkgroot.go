package eups

import (
	"strings"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/platform"
)

// PkgrootSeparator joins alternative package roots.
const PkgrootSeparator = "|"

// DefaultPkgroot returns the EUPS_PKGROOT for a host. Binary tarballs, when
// requested and available for the platform, are listed before sources. An
// empty base selects the LSST distribution server. A supported family whose
// release has no binary platform is an UnsupportedPlatform error when
// tarballs are requested.
func DefaultPkgroot(base string, useSrc, useTarballs bool, d platform.Descriptor, pyEnvSlug string) (string, error) {
	if base == "" {
		base = config.DefaultPkgrootBaseURL
	}
	base = strings.TrimSuffix(base, "/")
	var roots []string

	if useTarballs {
		switch d.Family {
		case platform.FamilyRedhat, platform.FamilyOSX:
			if d.Platform == "" || d.Toolchain == "" {
				return "", config.NewUnsupportedPlatformError("use binary tarballs",
					strings.TrimSpace(d.Raw()+" "+d.Release))
			}
			roots = append(roots, strings.Join([]string{
				base, string(d.Family), d.Platform, d.Toolchain, pyEnvSlug,
			}, "/"))
		}
	}
	if useSrc {
		roots = append(roots, base+"/src")
	}
	return strings.Join(roots, PkgrootSeparator), nil
}
