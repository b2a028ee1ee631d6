// Package platform detects the host OS family and maps it to the binary
// platform and compiler toolchain used by prebuilt EUPS tarballs.
package platform

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/ports"
)

// Family is the closed set of OS families the installer distinguishes.
type Family string

const (
	// FamilyRedhat covers Linux hosts; releases are RHEL/CentOS majors.
	FamilyRedhat Family = "redhat"
	// FamilyOSX covers macOS hosts.
	FamilyOSX Family = "osx"
	// FamilyUnknown is any other kernel.
	FamilyUnknown Family = "unknown"
)

// ParseFamily converts an override string to a Family.
func ParseFamily(s string) Family {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyRedhat:
		return FamilyRedhat
	case FamilyOSX:
		return FamilyOSX
	default:
		return FamilyUnknown
	}
}

// Supported reports whether installers can target f.
func (f Family) Supported() bool {
	return f == FamilyRedhat || f == FamilyOSX
}

// Descriptor is the immutable result of probing the host.
type Descriptor struct {
	Family    Family `yaml:"family"`
	Release   string `yaml:"release"`
	Arch      string `yaml:"arch"`
	Kernel    string `yaml:"kernel"`
	Platform  string `yaml:"platform"`
	Toolchain string `yaml:"toolchain"`
}

// InstallerSuffix returns the Miniconda installer platform suffix.
func (d Descriptor) InstallerSuffix() (string, bool) {
	switch d.Family {
	case FamilyRedhat:
		return "Linux-x86_64", true
	case FamilyOSX:
		return "MacOSX-x86_64", true
	default:
		return "", false
	}
}

// CondaSubdir returns the conda platform subdirectory name.
func (d Descriptor) CondaSubdir() (string, bool) {
	switch d.Family {
	case FamilyRedhat:
		return "linux-64", true
	case FamilyOSX:
		return "osx-64", true
	default:
		return "", false
	}
}

// Raw returns the unmodified kernel name, used in error messages.
func (d Descriptor) Raw() string {
	if d.Kernel != "" {
		return d.Kernel
	}
	return string(d.Family)
}

// Derive maps a family and release to a binary platform slug and compiler
// toolchain. Unsupported inputs produce empty strings, never an error.
func Derive(family Family, release string) (platformSlug, toolchain string) {
	switch family {
	case FamilyRedhat:
		switch release {
		case "6", "7":
			return "el" + release, "devtoolset-8"
		}
	case FamilyOSX:
		return "10.9", "clang-1000.10.44.4"
	}
	return "", ""
}

// Overrides replace probed values when non-empty.
type Overrides struct {
	Family   string
	Release  string
	Platform string
	Compiler string
}

const (
	redhatReleaseFile = "/etc/redhat-release"
	osReleaseFile     = "/etc/os-release"
)

var releaseRE = regexp.MustCompile(`release\s*(\d+)`)

// Prober inspects the host through the command runner and file system.
type Prober struct {
	runner    ports.CommandRunner
	fs        ports.FileSystem
	logger    ports.Logger
	overrides Overrides
	debug     bool
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithOverrides sets values that take precedence over probing.
func WithOverrides(o Overrides) ProberOption {
	return func(p *Prober) {
		p.overrides = o
	}
}

// WithDebug enables diagnostics for unknown families and releases.
func WithDebug(enabled bool) ProberOption {
	return func(p *Prober) {
		p.debug = enabled
	}
}

// NewProber creates a Prober.
func NewProber(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, opts ...ProberOption) *Prober {
	p := &Prober{runner: runner, fs: fs, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProbeOSFamily determines the OS family and release. Kernels other than
// Linux and Darwin yield FamilyUnknown together with an UnsupportedPlatform
// error carrying the raw kernel name.
func (p *Prober) ProbeOSFamily(ctx context.Context) (Family, string, error) {
	f, release, _, err := p.probeFamily(ctx)
	return f, release, err
}

func (p *Prober) probeFamily(ctx context.Context) (Family, string, string, error) {
	if p.overrides.Family != "" {
		f := ParseFamily(p.overrides.Family)
		release := p.overrides.Release
		if release == "" && f.Supported() {
			release = p.probeRelease(ctx, f)
		}
		if !f.Supported() {
			return f, release, p.overrides.Family, config.NewUnsupportedPlatformError("detect OS family", p.overrides.Family)
		}
		return f, release, p.overrides.Family, nil
	}

	res, err := p.runner.Run(ctx, "uname", "-s")
	if err != nil {
		return FamilyUnknown, "", "", fmt.Errorf("running uname: %w", err)
	}
	kernel := strings.TrimSpace(res.Stdout)

	var f Family
	switch {
	case strings.HasPrefix(kernel, "Linux"):
		f = FamilyRedhat
	case strings.HasPrefix(kernel, "Darwin"):
		f = FamilyOSX
	default:
		if p.debug {
			p.logger.Warn(ctx, "unknown osfamily", ports.F("kernel", kernel))
		}
		return FamilyUnknown, "", kernel, config.NewUnsupportedPlatformError("detect OS family", kernel)
	}

	release := p.overrides.Release
	if release == "" {
		release = p.probeRelease(ctx, f)
	}
	return f, release, kernel, nil
}

func (p *Prober) probeRelease(ctx context.Context, f Family) string {
	switch f {
	case FamilyRedhat:
		if data, err := p.fs.ReadFile(redhatReleaseFile); err == nil {
			if m := releaseRE.FindStringSubmatch(string(data)); m != nil {
				return m[1]
			}
		}
		if data, err := p.fs.ReadFile(osReleaseFile); err == nil {
			if v := osReleaseMajor(data); v != "" {
				return v
			}
		}
		if p.debug {
			p.logger.Warn(ctx, "unable to find release string")
		}
	case FamilyOSX:
		res, err := p.runner.Run(ctx, "sw_vers", "-productVersion")
		if err == nil && res.Success() {
			return strings.TrimSpace(res.Stdout)
		}
		if p.debug {
			p.logger.Warn(ctx, "unable to determine macOS release")
		}
	}
	return ""
}

// osReleaseMajor extracts the major component of VERSION_ID.
func osReleaseMajor(data []byte) string {
	f, err := ini.Load(data)
	if err != nil {
		return ""
	}
	v := f.Section("").Key("VERSION_ID").String()
	v = strings.Trim(v, `"'`)
	if i := strings.IndexByte(v, '.'); i >= 0 {
		v = v[:i]
	}
	return v
}

// DerivePlatform wraps Derive, logging unsupported inputs when debugging.
func (p *Prober) DerivePlatform(ctx context.Context, f Family, release string) (string, string) {
	slug, cc := Derive(f, release)
	if slug == "" && p.debug {
		if f.Supported() {
			p.logger.Warn(ctx, "unsupported release: "+release, ports.F("osfamily", string(f)))
		} else {
			p.logger.Warn(ctx, "unsupported osfamily: "+string(f))
		}
	}
	if p.overrides.Platform != "" {
		slug = p.overrides.Platform
	}
	if p.overrides.Compiler != "" {
		cc = p.overrides.Compiler
	}
	return slug, cc
}

// Probe returns a complete Descriptor. An unsupported family is reported
// both in the Descriptor and as the returned error.
func (p *Prober) Probe(ctx context.Context) (Descriptor, error) {
	f, release, kernel, err := p.probeFamily(ctx)
	d := Descriptor{Family: f, Release: release, Kernel: kernel}

	if res, aerr := p.runner.Run(ctx, "uname", "-m"); aerr == nil && res.Success() {
		d.Arch = strings.TrimSpace(res.Stdout)
	}

	d.Platform, d.Toolchain = p.DerivePlatform(ctx, f, release)
	p.logger.Debug(ctx, "probed platform",
		ports.F("osfamily", string(d.Family)),
		ports.F("release", d.Release),
		ports.F("arch", d.Arch),
		ports.F("platform", d.Platform),
		ports.F("compiler", d.Toolchain))
	return d, err
}
