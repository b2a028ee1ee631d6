package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/testutil"
)

func loadForTest(t *testing.T, opts LoadOptions) (Config, error) {
	t.Helper()
	if opts.ConfigFile == "" {
		// keep the developer's own config out of the way
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	}
	if opts.WorkDir == "" {
		opts.WorkDir = t.TempDir()
	}
	return Load(viper.New(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadForTest(t, LoadOptions{WorkDir: "/opt/lsst"})
	require.NoError(t, err)

	assert.Equal(t, "/opt/lsst", cfg.Home)
	assert.Equal(t, DefaultPythonVersion, cfg.PythonVersion)
	assert.Equal(t, DefaultMinicondaVersion, cfg.MinicondaVersion)
	assert.Equal(t, DefaultMinicondaBaseURL, cfg.MinicondaBaseURL)
	assert.Equal(t, DefaultLsstswRef, cfg.LsstswRef)
	assert.Equal(t, cfg.LsstswRef, cfg.SplenvRef)
	assert.Equal(t, BootstrapConda, cfg.Bootstrap)
	assert.Equal(t, "yml", cfg.ManifestKind)
	assert.Equal(t, "curl", cfg.Curl)
	assert.Equal(t, "-sS", cfg.CurlOpts)
	assert.True(t, cfg.InstallEups)
	assert.True(t, cfg.UseEupspkg)
	assert.False(t, cfg.UseTarballs)
}

func TestLoad_AttendedCurlOpts(t *testing.T) {
	cfg, err := loadForTest(t, LoadOptions{Attended: true})
	require.NoError(t, err)
	assert.Equal(t, "-#", cfg.CurlOpts)
	assert.Equal(t, []string{"-#"}, cfg.CurlArgs())
}

func TestLoad_BatchForcesQuietCurl(t *testing.T) {
	t.Setenv("LSST_BATCH", "true")

	cfg, err := loadForTest(t, LoadOptions{Attended: true})
	require.NoError(t, err)
	assert.True(t, cfg.Batch)
	assert.Equal(t, "-sS", cfg.CurlOpts)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LSST_HOME", "/data/stack")
	t.Setenv("MINICONDA_VERSION", "legacy")
	t.Setenv("LSST_MINICONDA_VERSION", "py38_4.9.2")
	t.Setenv("LSST_CONDA_CHANNELS", "conda-forge defaults")
	t.Setenv("LSST_OS_FAMILY", "redhat")
	t.Setenv("LSST_EUPS_USE_TARBALLS", "true")
	t.Setenv("CURL_OPTS", "--retry 3")

	cfg, err := loadForTest(t, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/data/stack", cfg.Home)
	assert.Equal(t, "py38_4.9.2", cfg.MinicondaVersion, "LSST_ prefixed name wins")
	assert.Equal(t, "conda-forge defaults", cfg.CondaChannels)
	assert.Equal(t, "redhat", cfg.OSFamily)
	assert.True(t, cfg.UseTarballs)
	assert.Equal(t, []string{"--retry", "3"}, cfg.CurlArgs())
}

func TestLoad_LegacyMinicondaVersion(t *testing.T) {
	t.Setenv("MINICONDA_VERSION", "4.3.21")

	cfg, err := loadForTest(t, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "4.3.21", cfg.MinicondaVersion)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "newinstall.toml", `
lsstsw_ref = "abc1234"
manifest_kind = "lock"
conda_clean = true
`)

	cfg, err := loadForTest(t, LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "abc1234", cfg.LsstswRef)
	assert.Equal(t, "lock", cfg.ManifestKind)
	assert.True(t, cfg.CondaClean)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := loadForTest(t, LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.True(t, IsUserError(err, ErrCodeConfigParse))
}

func TestLoad_Python2Rejected(t *testing.T) {
	t.Setenv("LSST_PYTHON_VERSION", "2")

	_, err := loadForTest(t, LoadOptions{})
	require.Error(t, err)
	assert.Equal(t, "Python 2.x is no longer supported.", err.Error())
	assert.NotZero(t, ExitCodeOf(err))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{
		PythonVersion: "3",
		Bootstrap:     BootstrapMiniconda,
		ManifestKind:  "txt",
		Fetcher:       FetcherNative,
		LogFormat:     "json",
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.ManifestKind = "zip"
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, IsUserError(err, ErrCodeConfigInvalid))
	assert.Contains(t, GetUserError(err).Suggestion, "yml, lock, txt")

	bad = valid
	bad.PythonVersion = "4"
	assert.Error(t, bad.Validate())
}

func TestConfig_Render(t *testing.T) {
	t.Parallel()

	cfg := Config{Home: "/opt/lsst", PythonVersion: "3", LsstswRef: "fcd27eb"}

	out, err := cfg.Render("yaml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "home: /opt/lsst")
	assert.NotContains(t, string(out), "conda_path")

	out, err = cfg.Render("toml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "lsstsw_ref = 'fcd27eb'")

	_, err = cfg.Render("xml")
	assert.Error(t, err)
}
