package templates_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/templates"
)

func TestGenerateLoader(t *testing.T) {
	t.Parallel()

	for _, sh := range []string{"bash", "csh", "ksh", "zsh"} {
		t.Run(sh, func(t *testing.T) {
			t.Parallel()

			t.Run("without conda path", func(t *testing.T) {
				t.Parallel()

				out, err := templates.GenerateLoader(templates.LoaderData{
					Dialect: sh,
					Home:    "/dne",
					Pkgroot: "/dne/banana",
				})
				require.NoError(t, err)

				assert.Regexp(t, "This script is intended to be used with.*"+sh, out)
				assert.Contains(t, out, "/dne/banana")
				assert.Contains(t, out, "LSST_HOME")
				assert.Regexp(t, `["']/dne["']`, out)
				assert.NotContains(t, out, "activate")
			})

			t.Run("with conda path", func(t *testing.T) {
				t.Parallel()

				out, err := templates.GenerateLoader(templates.LoaderData{
					Dialect:   sh,
					Home:      "/dne",
					Pkgroot:   "https://eups.lsst.codes/stack/src",
					CondaPath: "/dne/python/banana",
					EnvName:   "lsst-scipipe-fcd27eb",
				})
				require.NoError(t, err)

				assert.Contains(t, out, "/dne/python/banana")
				assert.Contains(t, out, "lsst-scipipe-fcd27eb")
				assert.Contains(t, out, "activate")
			})
		})
	}
}

func TestGenerateLoader_PkgrootWithAlternatives(t *testing.T) {
	t.Parallel()

	pkgroot := "https://eups.lsst.codes/stack/redhat/el7/devtoolset-8/miniconda3-4.7.12-fcd27eb|https://eups.lsst.codes/stack/src"
	out, err := templates.GenerateLoader(templates.LoaderData{Dialect: "bash", Home: "/dne", Pkgroot: pkgroot})
	require.NoError(t, err)
	assert.Contains(t, out, `"${EUPS_PKGROOT:-`+pkgroot+`}"`)
}

func TestGenerateLoader_QuotesValues(t *testing.T) {
	t.Parallel()

	data := templates.LoaderData{
		Home:      `/opt/a"b $HOME ` + "`id`",
		Pkgroot:   "https://mirror.example.org/{x}$y",
		CondaPath: `/opt/it's!\conda`,
		EnvName:   "lsst-scipipe-fcd27eb",
	}

	tests := []struct {
		dialect string
		want    []string
	}{
		{
			dialect: "bash",
			want: []string{
				`export LSST_HOME="/opt/a\"b \$HOME \` + "`id\\`" + `"`,
				`export EUPS_PKGROOT="${EUPS_PKGROOT:-https://mirror.example.org/{x\}\$y}"`,
				`source "/opt/it's!\\conda/bin/activate"`,
			},
		},
		{
			dialect: "zsh",
			want: []string{
				`export LSST_HOME="/opt/a\"b \$HOME \` + "`id\\`" + `"`,
				`export EUPS_PKGROOT="${EUPS_PKGROOT:-https://mirror.example.org/{x\}\$y}"`,
			},
		},
		{
			dialect: "ksh",
			want: []string{
				`. "/opt/it's!\\conda/bin/activate"`,
			},
		},
		{
			dialect: "csh",
			want: []string{
				`setenv LSST_HOME '/opt/a"b $HOME ` + "`id`" + `'`,
				`setenv EUPS_PKGROOT 'https://mirror.example.org/{x}$y'`,
				`source '/opt/it'\''s!\conda/etc/profile.d/conda.csh'`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			t.Parallel()

			d := data
			d.Dialect = tt.dialect
			out, err := templates.GenerateLoader(d)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestGenerateLoader_UnknownDialect(t *testing.T) {
	t.Parallel()

	_, err := templates.GenerateLoader(templates.LoaderData{Dialect: "fish"})
	assert.Error(t, err)
}

func TestGenerateGreeting(t *testing.T) {
	t.Parallel()

	out, err := templates.GenerateGreeting(templates.GreetingData{
		Scripts: []templates.GreetingScript{
			{Path: "/opt/lsst/loadLSST.bash", Dialect: "bash"},
			{Path: "/opt/lsst/loadLSST.csh", Dialect: "csh"},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Bootstrap complete."))
	assert.Contains(t, out, `source "/opt/lsst/loadLSST.bash"  # for bash`)
	assert.Contains(t, out, `source "/opt/lsst/loadLSST.csh"  # for csh`)
	assert.Contains(t, out, "eups distrib install -t w_latest lsst_distrib")
}
