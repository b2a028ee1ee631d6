// Package archive unpacks source tarballs.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/lsst/lsst/internal/ports"
)

// TarGz extracts .tar.gz and .tgz archives to the real filesystem.
type TarGz struct{}

// NewTarGz creates a TarGz extractor.
func NewTarGz() *TarGz {
	return &TarGz{}
}

// Extract implements ports.Extractor.
func (TarGz) Extract(ctx context.Context, src, dest string) (string, error) {
	if !strings.HasSuffix(src, ".tar.gz") && !strings.HasSuffix(src, ".tgz") {
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}

	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	return extractTar(ctx, gzr, dest)
}

func extractTar(ctx context.Context, r io.Reader, dest string) (string, error) {
	dest = filepath.Clean(dest)
	tr := tar.NewReader(r)
	roots := make(map[string]bool)
	links := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read tar header: %w", err)
		}
		// GitHub archives carry the commit id in a global header.
		if header.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		target, err := securePath(dest, header.Name)
		if err != nil {
			return "", err
		}
		if throughLink(dest, target, links) {
			return "", fmt.Errorf("illegal file path in archive: %s passes through a symlink", header.Name)
		}
		rel, _ := filepath.Rel(dest, target)
		roots[strings.SplitN(rel, string(os.PathSeparator), 2)[0]] = true

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, header.Linkname); err != nil {
				return "", err
			}
			links[target] = true
		case tar.TypeReg:
			if err := writeFile(target, header.FileInfo().Mode(), tr); err != nil {
				return "", err
			}
		}
	}

	if len(roots) == 1 {
		for root := range roots {
			if root != "." {
				return filepath.Join(dest, root), nil
			}
		}
	}
	return dest, nil
}

// securePath rejects entries that would land outside dest.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !within(dest, target) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}

// within reports whether the cleaned path is dest or below it.
func within(dest, path string) bool {
	path = filepath.Clean(path)
	return path == dest || strings.HasPrefix(path, dest+string(os.PathSeparator))
}

// throughLink reports whether a parent of target is a symlink written
// earlier from the same archive.
func throughLink(dest, target string, links map[string]bool) bool {
	for dir := filepath.Dir(target); within(dest, dir) && dir != dest; dir = filepath.Dir(dir) {
		if links[dir] {
			return true
		}
	}
	return false
}

func writeSymlink(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) || !within(dest, filepath.Join(filepath.Dir(target), linkname)) {
		return fmt.Errorf("illegal symlink in archive: %s -> %s", target, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
	}
	_ = os.Remove(target)
	return os.Symlink(linkname, target)
}

func writeFile(target string, mode os.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return nil
}

// DryRun logs extractions without touching the filesystem.
type DryRun struct {
	logger ports.Logger
}

// NewDryRun creates a DryRun extractor.
func NewDryRun(logger ports.Logger) *DryRun {
	return &DryRun{logger: logger}
}

// Extract implements ports.Extractor.
func (d *DryRun) Extract(ctx context.Context, src, dest string) (string, error) {
	d.logger.Info(ctx, "noop: extract "+src, ports.F("dest", dest))
	return dest, nil
}

var (
	_ ports.Extractor = TarGz{}
	_ ports.Extractor = (*DryRun)(nil)
)
