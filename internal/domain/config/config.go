// Package config holds the immutable run configuration and the error taxonomy
// shared by every installer component.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the config file nor the environment set a value.
const (
	DefaultPythonVersion    = "3"
	DefaultMinicondaVersion = "py37_4.8.2"
	DefaultMinicondaBaseURL = "https://repo.continuum.io/miniconda"
	DefaultLsstswRef        = "fcd27eb"
	DefaultEupsVersion      = "2.1.5"
	DefaultEupsGitRepo      = "https://github.com/RobertLuptonTheGood/eups"
	DefaultPkgrootBaseURL   = "https://eups.lsst.codes/stack"
	DefaultUp2dateURL       = "https://raw.githubusercontent.com/lsst/lsst/main/scripts/newinstall.sh"

	curlOptsAttended   = "-#"
	curlOptsUnattended = "-sS"
)

// Bootstrap variants.
const (
	BootstrapConda     = "conda"
	BootstrapMiniconda = "miniconda"
)

// Fetcher implementations.
const (
	FetcherCurl   = "curl"
	FetcherNative = "native"
)

// Config is the fully resolved configuration for one invocation.
// It is built once by Load and passed by value afterwards.
type Config struct {
	Home string `mapstructure:"home" yaml:"home" toml:"home"`

	PythonVersion    string `mapstructure:"python_version" yaml:"python_version" toml:"python_version"`
	MinicondaVersion string `mapstructure:"miniconda_version" yaml:"miniconda_version" toml:"miniconda_version"`
	MinicondaBaseURL string `mapstructure:"miniconda_base_url" yaml:"miniconda_base_url" toml:"miniconda_base_url"`
	Bootstrap        string `mapstructure:"bootstrap" yaml:"bootstrap" toml:"bootstrap"`
	CondaPath        string `mapstructure:"conda_path" yaml:"conda_path,omitempty" toml:"conda_path,omitempty"`

	LsstswRef     string `mapstructure:"lsstsw_ref" yaml:"lsstsw_ref" toml:"lsstsw_ref"`
	SplenvRef     string `mapstructure:"splenv_ref" yaml:"splenv_ref" toml:"splenv_ref"`
	CondaChannels string `mapstructure:"conda_channels" yaml:"conda_channels,omitempty" toml:"conda_channels,omitempty"`
	CondaEnvName  string `mapstructure:"conda_env_name" yaml:"conda_env_name,omitempty" toml:"conda_env_name,omitempty"`
	ManifestKind  string `mapstructure:"manifest_kind" yaml:"manifest_kind" toml:"manifest_kind"`
	CondaClean    bool   `mapstructure:"conda_clean" yaml:"conda_clean" toml:"conda_clean"`

	InstallEups     bool   `mapstructure:"install_eups" yaml:"install_eups" toml:"install_eups"`
	EupsVersion     string `mapstructure:"eups_version" yaml:"eups_version" toml:"eups_version"`
	EupsGitRev      string `mapstructure:"eups_gitrev" yaml:"eups_gitrev,omitempty" toml:"eups_gitrev,omitempty"`
	EupsGitRepo     string `mapstructure:"eups_gitrepo" yaml:"eups_gitrepo" toml:"eups_gitrepo"`
	EupsPython      string `mapstructure:"eups_python" yaml:"eups_python,omitempty" toml:"eups_python,omitempty"`
	PkgrootBaseURL  string `mapstructure:"pkgroot_base_url" yaml:"pkgroot_base_url" toml:"pkgroot_base_url"`
	EupsPkgroot     string `mapstructure:"eups_pkgroot" yaml:"eups_pkgroot,omitempty" toml:"eups_pkgroot,omitempty"`
	PreservePkgroot bool   `mapstructure:"preserve_pkgroot" yaml:"preserve_pkgroot" toml:"preserve_pkgroot"`
	UseTarballs     bool   `mapstructure:"use_tarballs" yaml:"use_tarballs" toml:"use_tarballs"`
	UseEupspkg      bool   `mapstructure:"use_eupspkg" yaml:"use_eupspkg" toml:"use_eupspkg"`

	OSFamily  string `mapstructure:"os_family" yaml:"os_family,omitempty" toml:"os_family,omitempty"`
	OSRelease string `mapstructure:"os_release" yaml:"os_release,omitempty" toml:"os_release,omitempty"`
	Platform  string `mapstructure:"platform" yaml:"platform,omitempty" toml:"platform,omitempty"`
	Compiler  string `mapstructure:"compiler" yaml:"compiler,omitempty" toml:"compiler,omitempty"`

	Batch    bool `mapstructure:"batch" yaml:"batch" toml:"batch"`
	Continue bool `mapstructure:"continue" yaml:"continue" toml:"continue"`
	Noop     bool `mapstructure:"noop" yaml:"noop" toml:"noop"`
	SkipGit  bool `mapstructure:"skip_git" yaml:"skip_git" toml:"skip_git"`
	Debug    bool `mapstructure:"debug" yaml:"debug" toml:"debug"`

	Curl     string `mapstructure:"curl" yaml:"curl" toml:"curl"`
	CurlOpts string `mapstructure:"curl_opts" yaml:"curl_opts" toml:"curl_opts"`
	Fetcher  string `mapstructure:"fetcher" yaml:"fetcher" toml:"fetcher"`

	Up2dateURL  string `mapstructure:"up2date_url" yaml:"up2date_url" toml:"up2date_url"`
	Up2dateSelf string `mapstructure:"up2date_self" yaml:"up2date_self,omitempty" toml:"up2date_self,omitempty"`
	SkipUp2date bool   `mapstructure:"skip_up2date" yaml:"skip_up2date" toml:"skip_up2date"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" toml:"log_format"`
}

// envBindings lists the environment variables consulted for each key.
// Earlier names take precedence, so LSST_* overrides beat legacy names.
var envBindings = map[string][]string{
	"home":               {"LSST_HOME"},
	"python_version":     {"LSST_PYTHON_VERSION"},
	"miniconda_version":  {"LSST_MINICONDA_VERSION", "MINICONDA_VERSION"},
	"miniconda_base_url": {"LSST_MINICONDA_BASE_URL"},
	"bootstrap":          {"LSST_BOOTSTRAP"},
	"conda_path":         {"LSST_CONDA_PATH"},
	"lsstsw_ref":         {"LSST_LSSTSW_REF"},
	"splenv_ref":         {"LSST_SPLENV_REF"},
	"conda_channels":     {"LSST_CONDA_CHANNELS"},
	"conda_env_name":     {"LSST_CONDA_ENV_NAME"},
	"manifest_kind":      {"LSST_MANIFEST_KIND"},
	"conda_clean":        {"LSST_CONDA_CLEAN"},
	"install_eups":       {"LSST_INSTALL_EUPS"},
	"eups_version":       {"LSST_EUPS_VERSION"},
	"eups_gitrev":        {"LSST_EUPS_GITREV"},
	"eups_gitrepo":       {"LSST_EUPS_GITREPO"},
	"eups_python":        {"LSST_EUPS_PYTHON", "EUPS_PYTHON"},
	"pkgroot_base_url":   {"LSST_EUPS_PKGROOT_BASE_URL"},
	"eups_pkgroot":       {"EUPS_PKGROOT"},
	"use_tarballs":       {"LSST_EUPS_USE_TARBALLS"},
	"use_eupspkg":        {"LSST_EUPS_USE_EUPSPKG"},
	"os_family":          {"LSST_OS_FAMILY"},
	"os_release":         {"LSST_OS_RELEASE"},
	"platform":           {"LSST_PLATFORM"},
	"compiler":           {"LSST_COMPILER"},
	"batch":              {"LSST_BATCH"},
	"debug":              {"LSST_DEBUG"},
	"curl":               {"CURL"},
	"curl_opts":          {"CURL_OPTS"},
	"fetcher":            {"LSST_FETCHER"},
	"up2date_url":        {"LSST_UP2DATE_URL"},
	"up2date_self":       {"LSST_UP2DATE_SELF"},
	"skip_up2date":       {"LSST_SKIP_UP2DATE"},
	"log_level":          {"LSST_LOG_LEVEL"},
	"log_format":         {"LSST_LOG_FORMAT"},
}

// LoadOptions carries the inputs Load cannot discover on its own.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. When empty the XDG config
	// directory is searched for newinstall/config.{yaml,toml}.
	ConfigFile string
	// Attended reports whether stdout is an interactive terminal.
	Attended bool
	// WorkDir is the fallback for Home. Defaults to the process working directory.
	WorkDir string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("python_version", DefaultPythonVersion)
	v.SetDefault("miniconda_version", DefaultMinicondaVersion)
	v.SetDefault("miniconda_base_url", DefaultMinicondaBaseURL)
	v.SetDefault("bootstrap", BootstrapConda)
	v.SetDefault("lsstsw_ref", DefaultLsstswRef)
	v.SetDefault("manifest_kind", "yml")
	v.SetDefault("install_eups", true)
	v.SetDefault("eups_version", DefaultEupsVersion)
	v.SetDefault("eups_gitrepo", DefaultEupsGitRepo)
	v.SetDefault("pkgroot_base_url", DefaultPkgrootBaseURL)
	v.SetDefault("use_eupspkg", true)
	v.SetDefault("curl", "curl")
	v.SetDefault("fetcher", FetcherCurl)
	v.SetDefault("up2date_url", DefaultUp2dateURL)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load resolves the configuration from defaults, the config file, the
// environment and any flags already bound on v.
func Load(v *viper.Viper, opts LoadOptions) (Config, error) {
	SetDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, NewUserError(ErrCodeConfigParse, "failed to decode configuration").WithUnderlying(err)
	}

	if !v.IsSet("curl_opts") {
		cfg.CurlOpts = curlOptsUnattended
		if opts.Attended && !cfg.Batch {
			cfg.CurlOpts = curlOptsAttended
		}
	}

	if cfg.Home == "" {
		cfg.Home = opts.WorkDir
		if cfg.Home == "" {
			wd, err := os.Getwd()
			if err != nil {
				return Config{}, fmt.Errorf("resolving working directory: %w", err)
			}
			cfg.Home = wd
		}
	}
	abs, err := filepath.Abs(cfg.Home)
	if err != nil {
		return Config{}, fmt.Errorf("resolving LSST_HOME: %w", err)
	}
	cfg.Home = abs

	if cfg.SplenvRef == "" {
		cfg.SplenvRef = cfg.LsstswRef
	}

	return cfg, cfg.Validate()
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "newinstall"))
		v.SetConfigName("config")
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return nil
	}
	return NewUserError(ErrCodeConfigParse, "failed to read configuration file").
		WithContext(path).
		WithUnderlying(err)
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if strings.HasPrefix(c.PythonVersion, "2") {
		return NewUsageError("Python 2.x is no longer supported.")
	}
	if c.PythonVersion != "3" {
		return NewUserError(ErrCodeConfigInvalid, fmt.Sprintf("unsupported python version %q", c.PythonVersion)).
			WithSuggestion("Set LSST_PYTHON_VERSION=3.")
	}

	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"bootstrap", c.Bootstrap, []string{BootstrapConda, BootstrapMiniconda}},
		{"manifest_kind", c.ManifestKind, []string{"yml", "lock", "txt"}},
		{"fetcher", c.Fetcher, []string{FetcherCurl, FetcherNative}},
		{"log_format", c.LogFormat, []string{"text", "json"}},
	}
	for _, chk := range checks {
		if !contains(chk.allowed, chk.value) {
			return NewUserError(ErrCodeConfigInvalid, fmt.Sprintf("invalid %s %q", chk.name, chk.value)).
				WithSuggestion("Valid values: " + strings.Join(chk.allowed, ", "))
		}
	}
	return nil
}

// CurlArgs splits CurlOpts into individual arguments, dropping empties.
func (c Config) CurlArgs() []string {
	return strings.Fields(c.CurlOpts)
}

// Render serializes the configuration as yaml or toml.
func (c Config) Render(format string) ([]byte, error) {
	switch format {
	case "", "yaml", "yml":
		return yaml.Marshal(c)
	case "toml":
		return toml.Marshal(c)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
