package eups

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/domain/link"
	"github.com/lsst/lsst/internal/domain/platform"
	"github.com/lsst/lsst/internal/domain/prereq"
	"github.com/lsst/lsst/internal/ports"
	"github.com/lsst/lsst/internal/testutil/mocks"
)

func TestLayout(t *testing.T) {
	t.Parallel()

	l := Layout{
		Home:             "/dne/home",
		PythonVersion:    "800",
		MinicondaVersion: "banana",
		SplenvRef:        "apple",
		EupsVersion:      "2.1.5",
	}

	assert.Equal(t, "miniconda800-banana", l.MinicondaSlug())
	assert.Equal(t, "miniconda800-banana-apple", l.PythonEnvSlug())
	assert.Equal(t, "2.1.5", l.EupsSlug())
	assert.Equal(t, "/dne/home/eups", l.EupsBaseDir())
	assert.Equal(t, "/dne/home/eups/2.1.5", l.EupsDir())
	assert.Equal(t, "/dne/home/stack/miniconda800-banana-apple", l.EupsPath())

	l.EupsGitRev = "cherry"
	assert.Equal(t, "cherry", l.EupsSlug(), "git revision overrides version")
	assert.Equal(t, "/dne/home/eups/cherry", l.EupsDir())
}

func TestNewLayout(t *testing.T) {
	t.Parallel()

	l := NewLayout(config.Config{Home: "/opt/lsst", PythonVersion: "3", MinicondaVersion: "4.7.12", SplenvRef: "fcd27eb"})
	assert.Equal(t, "/opt/lsst/stack/miniconda3-4.7.12-fcd27eb", l.EupsPath())
}

func TestDefaultPkgroot(t *testing.T) {
	t.Parallel()

	el7 := platform.Descriptor{Family: platform.FamilyRedhat, Release: "7", Platform: "el7", Toolchain: "very-unlikely-string"}
	unknown := platform.Descriptor{Family: platform.FamilyUnknown}

	tests := []struct {
		name     string
		base     string
		src      bool
		tarballs bool
		d        platform.Descriptor
		want     string
	}{
		{"src only", "", true, false, el7, "https://eups.lsst.codes/stack/src"},
		{"nothing", "", false, false, el7, ""},
		{"tarballs only", "", false, true, el7, "https://eups.lsst.codes/stack/redhat/el7/very-unlikely-string/miniconda3-4.7.12-fcd27eb"},
		{
			"tarballs then src", "", true, true, el7,
			"https://eups.lsst.codes/stack/redhat/el7/very-unlikely-string/miniconda3-4.7.12-fcd27eb|https://eups.lsst.codes/stack/src",
		},
		{"tarballs unavailable", "", true, true, unknown, "https://eups.lsst.codes/stack/src"},
		{"custom base", "https://mirror.example.org/stack/", true, false, el7, "https://mirror.example.org/stack/src"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DefaultPkgroot(tt.base, tt.src, tt.tarballs, tt.d, "miniconda3-4.7.12-fcd27eb")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultPkgroot_ReleaseWithoutBinaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    platform.Descriptor
	}{
		{"redhat 8", platform.Descriptor{Family: platform.FamilyRedhat, Release: "8"}},
		{"redhat 9", platform.Descriptor{Family: platform.FamilyRedhat, Release: "9", Kernel: "Linux"}},
		{"toolchain missing", platform.Descriptor{Family: platform.FamilyOSX, Release: "10.14.6", Platform: "10.9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, err := DefaultPkgroot("", true, true, tt.d, "miniconda3-4.7.12-fcd27eb")
			require.Error(t, err)
			assert.Empty(t, root)
			assert.True(t, config.IsUserError(err, config.ErrCodeUnsupportedPlatform))
			assert.Contains(t, err.Error(), tt.d.Release)
		})
	}

	root, err := DefaultPkgroot("", true, false, platform.Descriptor{Family: platform.FamilyRedhat, Release: "8"}, "x")
	require.NoError(t, err, "sources alone do not need a binary platform")
	assert.Equal(t, "https://eups.lsst.codes/stack/src", root)
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestProblemVariables(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ProblemVariables(lookupFrom(nil), false))

	all := map[string]string{"EUPS_PATH": "foo", "EUPS_PKGROOT": "foo", "REPOSITORY_PATH": "foo", "HOME": "/root"}
	got := ProblemVariables(lookupFrom(all), false)
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"EUPS_PATH", "EUPS_PKGROOT", "REPOSITORY_PATH"}, names)

	assert.Len(t, ProblemVariables(lookupFrom(all), true), 2, "EUPS_PKGROOT preserved")
}

func TestCheckProblemVariables(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckProblemVariables(lookupFrom(nil), false))

	err := CheckProblemVariables(lookupFrom(map[string]string{
		"EUPS_PATH": "foo", "EUPS_PKGROOT": "foo", "REPOSITORY_PATH": "foo",
	}), false)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeProblemVariables))
	for _, v := range []string{"EUPS_PATH", "EUPS_PKGROOT", "REPOSITORY_PATH"} {
		assert.Contains(t, err.Error(), v+`="foo"`)
	}
	assert.Contains(t, config.GetUserError(err).Suggestion, "unset EUPS_PATH EUPS_PKGROOT REPOSITORY_PATH")
	assert.NotZero(t, config.ExitCodeOf(err))
}

type stubChecker struct {
	err   error
	calls int
}

func (s *stubChecker) CheckMinVersion(_ context.Context, _, _ string, _ prereq.VersionRequirement) error {
	s.calls++
	return s.err
}

type stubExtractor struct {
	root string
	err  error
	src  string
}

func (s *stubExtractor) Extract(_ context.Context, src, _ string) (string, error) {
	s.src = src
	return s.root, s.err
}

type fixture struct {
	fs        *mocks.FileSystem
	fetcher   *mocks.Fetcher
	runner    *mocks.CommandRunner
	checker   *stubChecker
	extractor *stubExtractor
	logger    *mocks.Logger
}

func newFixture() fixture {
	fs := mocks.NewFileSystem()
	fs.AddExecutable("/opt/lsst/conda/current/bin/python")
	runner := mocks.NewCommandRunner()
	runner.SetFallback(ports.CommandResult{})
	return fixture{
		fs:        fs,
		fetcher:   mocks.NewFetcher(fs),
		runner:    runner,
		checker:   &stubChecker{},
		extractor: &stubExtractor{root: "/opt/lsst/_build/eups-2.1.5"},
		logger:    mocks.NewLogger(),
	}
}

func (f fixture) installer(opts ...Option) *Installer {
	return NewInstaller(f.fetcher, f.runner, f.fs, f.extractor, f.checker, link.NewManager(f.fs, f.logger), f.logger, opts...)
}

var layout = Layout{
	Home:             "/opt/lsst",
	PythonVersion:    "3",
	MinicondaVersion: "4.7.12",
	SplenvRef:        "fcd27eb",
	EupsVersion:      "2.1.5",
}

func TestInstall_NotExecutable(t *testing.T) {
	t.Parallel()

	f := newFixture()
	err := f.installer().Install(context.Background(), layout.Request("/dne/foo/bar", ""))
	require.Error(t, err)
	assert.Equal(t, "Cannot find or execute '/dne/foo/bar'.", err.Error())
	assert.Zero(t, f.checker.calls)

	f.fs.AddFile("/opt/lsst/plain", "")
	err = f.installer().Install(context.Background(), layout.Request("/opt/lsst/plain", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot find or execute")
}

func TestInstall_PythonTooOld(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.checker.err = config.NewVersionTooLowError("EUPS", 2, 6)

	err := f.installer().Install(context.Background(), layout.Request("/opt/lsst/conda/current/bin/python", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EUPS requires Python 2.6 or newer")
	assert.Empty(t, f.fetcher.Calls())
}

func TestInstall_BuildsFromSource(t *testing.T) {
	t.Parallel()

	f := newFixture()
	url := "https://github.com/RobertLuptonTheGood/eups/archive/2.1.5.tar.gz"
	f.fetcher.AddBody(url, "tarball")

	py := "/opt/lsst/conda/current/bin/python"
	require.NoError(t, f.installer().Install(context.Background(), layout.Request(py, "")))

	fetches := f.fetcher.Calls()
	require.Len(t, fetches, 1)
	assert.Equal(t, url, fetches[0].URL)
	assert.Equal(t, fetches[0].Dest, f.extractor.src)

	calls := f.runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/opt/lsst/_build/eups-2.1.5", calls[0].Dir)
	assert.Equal(t, "./configure --prefix=/opt/lsst/eups/2.1.5 --with-eups=/opt/lsst/stack/miniconda3-4.7.12-fcd27eb --with-python="+py, calls[0].String())
	assert.Equal(t, "make install", calls[1].String())

	isLink, target := f.fs.IsSymlink("/opt/lsst/eups/current")
	assert.True(t, isLink)
	assert.Equal(t, "2.1.5", target)

	assert.False(t, f.fs.Exists(fetches[0].Dest), "tarball removed")
	assert.False(t, f.fs.Exists("/opt/lsst/_build"), "build dir removed")
	assert.True(t, f.logger.Contains("Installing EUPS (2.1.5)..."))
}

func TestInstall_ReusesExistingBuild(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.fs.AddFile("/opt/lsst/eups/2.1.5/bin/setups.sh", "")

	require.NoError(t, f.installer().Install(context.Background(), layout.Request("/opt/lsst/conda/current/bin/python", "")))
	assert.Empty(t, f.fetcher.Calls())
	assert.Empty(t, f.runner.Calls())

	isLink, _ := f.fs.IsSymlink("/opt/lsst/eups/current")
	assert.True(t, isLink)
}

func TestInstall_ConfigureFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.fetcher.AddBody("https://example.org/eups/archive/2.1.5.tar.gz", "")
	f.runner.SetFallback(ports.CommandResult{ExitCode: 77, Stderr: "configure: error: no python"})

	err := f.installer().Install(context.Background(), layout.Request("/opt/lsst/conda/current/bin/python", "https://example.org/eups/"))
	require.Error(t, err)
	assert.Equal(t, 77, config.ExitCodeOf(err))
	assert.Len(t, f.runner.Calls(), 1, "make never runs")

	isLink, _ := f.fs.IsSymlink("/opt/lsst/eups/current")
	assert.False(t, isLink)
}

func TestInstall_ExtractFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.fetcher.AddBody("https://github.com/RobertLuptonTheGood/eups/archive/2.1.5.tar.gz", "")
	f.extractor.err = errors.New("gzip: invalid header")

	err := f.installer().Install(context.Background(), layout.Request("/opt/lsst/conda/current/bin/python", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")
	assert.Empty(t, f.runner.Calls())
}

func TestInstall_DryRunSkipsPythonValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.fetcher.AddBody("https://github.com/RobertLuptonTheGood/eups/archive/2.1.5.tar.gz", "")

	err := f.installer(WithDryRun(true)).Install(context.Background(), layout.Request("/not/installed/python", ""))
	require.NoError(t, err)
	assert.Zero(t, f.checker.calls)
}
