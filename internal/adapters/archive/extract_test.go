package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst/lsst/internal/testutil"
	"github.com/lsst/lsst/internal/testutil/mocks"
)

type entry struct {
	name     string
	body     string
	dir      bool
	linkname string
}

func writeTarGz(t *testing.T, path string, entries []entry) {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644}
		switch {
		case e.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		case e.linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.linkname
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestTarGz_Extract(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "2.1.5.tar.gz")
	writeTarGz(t, src, []entry{
		{name: "eups-2.1.5/", dir: true},
		{name: "eups-2.1.5/configure", body: "#!/bin/sh\n"},
		{name: "eups-2.1.5/bin/setups.sh", body: "export EUPS_DIR\n"},
		{name: "eups-2.1.5/bin/setups", linkname: "setups.sh"},
	})

	dest := filepath.Join(dir, "build")
	root, err := NewTarGz().Extract(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "eups-2.1.5"), root)

	testutil.AssertFileEquals(t, filepath.Join(root, "bin", "setups.sh"), "export EUPS_DIR\n")
	testutil.AssertSymlink(t, filepath.Join(root, "bin", "setups"), "setups.sh")
}

func TestTarGz_RejectsTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tgz")
	writeTarGz(t, src, []entry{{name: "../../etc/passwd", body: "x"}})

	_, err := NewTarGz().Extract(context.Background(), src, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal file path")
}

func TestTarGz_RejectsEscapingSymlink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []entry
		message string
	}{
		{
			name:    "relative escape",
			entries: []entry{{name: "pkg/escape", linkname: "../../../etc"}},
			message: "illegal symlink",
		},
		{
			name:    "one level above dest",
			entries: []entry{{name: "pkg/escape", linkname: "../../outside"}},
			message: "illegal symlink",
		},
		{
			name:    "absolute target",
			entries: []entry{{name: "pkg/escape", linkname: "/etc"}},
			message: "illegal symlink",
		},
		{
			name: "write through extracted link",
			entries: []entry{
				{name: "pkg/sub/", dir: true},
				{name: "pkg/lib", linkname: "sub"},
				{name: "pkg/lib/x", body: "x"},
			},
			message: "passes through a symlink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "evil.tar.gz")
			writeTarGz(t, src, tt.entries)

			_, err := NewTarGz().Extract(context.Background(), src, filepath.Join(dir, "out"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			testutil.AssertFileNotExists(t, filepath.Join(dir, "out", "pkg", "sub", "x"))
		})
	}
}

func TestTarGz_MultipleRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "flat.tar.gz")
	writeTarGz(t, src, []entry{{name: "a.txt", body: "a"}, {name: "b.txt", body: "b"}})

	dest := filepath.Join(dir, "out")
	root, err := NewTarGz().Extract(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, root)
}

func TestTarGz_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := NewTarGz().Extract(context.Background(), "/tmp/eups.zip", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive format")
}

func TestDryRun_Extract(t *testing.T) {
	t.Parallel()

	logger := mocks.NewLogger()
	root, err := NewDryRun(logger).Extract(context.Background(), "/tmp/eups.tar.gz", "/opt/lsst/_build")
	require.NoError(t, err)
	assert.Equal(t, "/opt/lsst/_build", root)
	assert.True(t, logger.Contains("noop: extract /tmp/eups.tar.gz"))
}
