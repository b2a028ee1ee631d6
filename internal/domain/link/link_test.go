package link

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/adapters/filesystem"
	"github.com/lsst/lsst/internal/adapters/logging"
	"github.com/lsst/lsst/internal/testutil/mocks"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		link    string
		want    Plan
		wantErr string
	}{
		{name: "no target", wantErr: "link target is required"},
		{name: "no name", target: "/dne", wantErr: "link name is required"},
		{
			name:   "absolute name",
			target: "/dne/target",
			link:   "/dne/name",
			want:   Plan{Link: "/dne/name", Target: "target"},
		},
		{
			name:   "relative name",
			target: "/opt/lsst/python/miniconda3-4.7.12/",
			link:   "current",
			want:   Plan{Link: "/opt/lsst/python/current", Target: "miniconda3-4.7.12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.target, tt.link)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkCurrent_CreatesRelativeLink(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddDir("/dne/target")
	fs.AddDir("/dne/name")

	m := NewManager(fs, mocks.NewLogger())
	require.NoError(t, m.LinkCurrent(context.Background(), "/dne/target", "/dne/name"))

	assert.Equal(t, []string{"removeall /dne/name", "symlink /dne/name -> target"}, fs.Journal())
}

func TestLinkCurrent_NoopWhenCorrect(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddSymlink("/dne/current", "target")

	m := NewManager(fs, mocks.NewLogger())
	require.NoError(t, m.LinkCurrent(context.Background(), "/dne/target", "current"))
	assert.Empty(t, fs.Journal())
}

func TestLinkCurrent_Idempotent(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	m := NewManager(fs, mocks.NewLogger())

	require.NoError(t, m.LinkCurrent(context.Background(), "/opt/lsst/conda/miniconda3-4.7.12", "current"))
	first := fs.Journal()
	require.Len(t, first, 2)

	require.NoError(t, m.LinkCurrent(context.Background(), "/opt/lsst/conda/miniconda3-4.7.12", "current"))
	assert.Equal(t, first, fs.Journal(), "second call mutates nothing")
}

func TestLinkCurrent_ReplacesStaleLink(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddSymlink("/opt/lsst/conda/current", "miniconda3-4.5.4")

	m := NewManager(fs, mocks.NewLogger())
	require.NoError(t, m.LinkCurrent(context.Background(), "/opt/lsst/conda/miniconda3-4.7.12", "current"))

	isLink, target := fs.IsSymlink("/opt/lsst/conda/current")
	assert.True(t, isLink)
	assert.Equal(t, "miniconda3-4.7.12", target)
}

func TestLinkCurrent_RewritesAbsoluteLink(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddSymlink("/opt/lsst/conda/current", "/opt/lsst/conda/miniconda3-1")

	m := NewManager(fs, mocks.NewLogger())
	require.NoError(t, m.LinkCurrent(context.Background(), "/opt/lsst/conda/miniconda3-1", "current"))

	assert.NotEmpty(t, fs.Journal())
	isLink, target := fs.IsSymlink("/opt/lsst/conda/current")
	assert.True(t, isLink)
	assert.Equal(t, "miniconda3-1", target, "absolute link replaced by a relative one")
}

func TestLinkCurrent_RealFileSystem(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	v1 := filepath.Join(root, "miniconda3-1")
	v2 := filepath.Join(root, "miniconda3-2")
	require.NoError(t, os.Mkdir(v1, 0o755))
	require.NoError(t, os.Mkdir(v2, 0o755))

	m := NewManager(filesystem.NewRealFileSystem(), logging.NewNopLogger())
	require.NoError(t, m.LinkCurrent(context.Background(), v1, DefaultName))
	require.NoError(t, m.LinkCurrent(context.Background(), v2, DefaultName))

	got, err := os.Readlink(filepath.Join(root, DefaultName))
	require.NoError(t, err)
	assert.Equal(t, "miniconda3-2", got, "link is relative")

	resolved, err := filepath.EvalSymlinks(filepath.Join(root, DefaultName))
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(v2)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, resolved)
}
