package mocks

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lsst/lsst/internal/ports"
)

// FileSystem is a thread-safe in-memory test double for ports.FileSystem.
// Every mutating call is appended to a journal so tests can assert that an
// operation left the tree untouched.
type FileSystem struct {
	mu       sync.RWMutex
	files    map[string][]byte
	modes    map[string]os.FileMode
	symlinks map[string]string
	dirs     map[string]bool
	journal  []string
	tempSeq  int
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:    make(map[string][]byte),
		modes:    make(map[string]os.FileMode),
		symlinks: make(map[string]string),
		dirs:     make(map[string]bool),
	}
}

// AddFile adds a file to the mock filesystem.
func (fs *FileSystem) AddFile(p string, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[p] = []byte(content)
	fs.modes[p] = 0o644
}

// AddExecutable adds a file with execute permission.
func (fs *FileSystem) AddExecutable(p string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[p] = []byte("#!/bin/sh\n")
	fs.modes[p] = 0o755
}

// AddSymlink adds a symlink to the mock filesystem.
func (fs *FileSystem) AddSymlink(link, target string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.symlinks[link] = target
}

// AddDir adds a directory to the mock filesystem.
func (fs *FileSystem) AddDir(p string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[p] = true
}

// Journal returns the mutations performed through the FileSystem interface.
func (fs *FileSystem) Journal() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, len(fs.journal))
	copy(out, fs.journal)
	return out
}

// Files returns the paths of all regular files, sorted.
func (fs *FileSystem) Files() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, 0, len(fs.files))
	for p := range fs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (fs *FileSystem) record(format string, args ...interface{}) {
	fs.journal = append(fs.journal, fmt.Sprintf(format, args...))
}

// ReadFile reads a file from the mock filesystem.
func (fs *FileSystem) ReadFile(p string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if content, ok := fs.files[p]; ok {
		return content, nil
	}
	return nil, fmt.Errorf("open %s: %w", p, os.ErrNotExist)
}

// WriteFile writes a file to the mock filesystem.
func (fs *FileSystem) WriteFile(p string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[p] = append([]byte(nil), data...)
	fs.modes[p] = perm
	fs.record("write %s", p)
	return nil
}

// Exists checks if a path exists in the mock filesystem.
func (fs *FileSystem) Exists(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, fileExists := fs.files[p]
	_, linkExists := fs.symlinks[p]
	return fileExists || linkExists || fs.dirs[p]
}

// IsSymlink checks if a path is a symlink in the mock filesystem.
func (fs *FileSystem) IsSymlink(p string) (bool, string) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if target, ok := fs.symlinks[p]; ok {
		return true, target
	}
	return false, ""
}

// CreateSymlink creates a symlink in the mock filesystem.
func (fs *FileSystem) CreateSymlink(target, link string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.symlinks[link]; ok {
		return fmt.Errorf("symlink %s: %w", link, os.ErrExist)
	}
	fs.symlinks[link] = target
	fs.record("symlink %s -> %s", link, target)
	return nil
}

// Remove removes a single entry from the mock filesystem.
func (fs *FileSystem) Remove(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, p)
	delete(fs.modes, p)
	delete(fs.symlinks, p)
	delete(fs.dirs, p)
	fs.record("remove %s", p)
	return nil
}

// RemoveAll removes p and everything below it.
func (fs *FileSystem) RemoveAll(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prefix := strings.TrimSuffix(p, "/") + "/"
	for k := range fs.files {
		if k == p || strings.HasPrefix(k, prefix) {
			delete(fs.files, k)
			delete(fs.modes, k)
		}
	}
	for k := range fs.symlinks {
		if k == p || strings.HasPrefix(k, prefix) {
			delete(fs.symlinks, k)
		}
	}
	for k := range fs.dirs {
		if k == p || strings.HasPrefix(k, prefix) {
			delete(fs.dirs, k)
		}
	}
	fs.record("removeall %s", p)
	return nil
}

// MkdirAll creates a directory in the mock filesystem.
func (fs *FileSystem) MkdirAll(p string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.dirs[p] {
		fs.dirs[p] = true
		fs.record("mkdir %s", p)
	}
	return nil
}

// CreateTemp creates an empty file whose name replaces the last '*' in
// pattern with a sequence number.
func (fs *FileSystem) CreateTemp(dir, pattern string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if dir == "" {
		dir = "/tmp"
	}
	fs.tempSeq++
	seq := fmt.Sprintf("tmp%04d", fs.tempSeq)
	name := pattern + seq
	if i := strings.LastIndex(pattern, "*"); i >= 0 {
		name = pattern[:i] + seq + pattern[i+1:]
	}
	p := path.Join(dir, name)
	fs.files[p] = nil
	fs.modes[p] = 0o600
	fs.record("create %s", p)
	return p, nil
}

// IsDir checks if a path is a directory in the mock filesystem.
func (fs *FileSystem) IsDir(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dirs[p]
}

// ReadDir lists the immediate children of p.
func (fs *FileSystem) ReadDir(p string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.dirs[p] {
		return nil, fmt.Errorf("open %s: %w", p, os.ErrNotExist)
	}
	prefix := strings.TrimSuffix(p, "/") + "/"
	seen := make(map[string]bool)
	collect := func(k string) {
		if !strings.HasPrefix(k, prefix) {
			return
		}
		rest := strings.TrimPrefix(k, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			seen[rest] = true
		}
	}
	for k := range fs.files {
		collect(k)
	}
	for k := range fs.symlinks {
		collect(k)
	}
	for k := range fs.dirs {
		collect(k)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// GetFileInfo returns metadata about a file in the mock filesystem.
func (fs *FileSystem) GetFileInfo(p string) (ports.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if content, ok := fs.files[p]; ok {
		return ports.FileInfo{
			Size:    int64(len(content)),
			Mode:    fs.modes[p],
			ModTime: time.Now(),
		}, nil
	}

	if fs.dirs[p] {
		return ports.FileInfo{
			Mode:    0o755,
			ModTime: time.Now(),
			IsDir:   true,
		}, nil
	}

	return ports.FileInfo{}, fmt.Errorf("stat %s: %w", p, os.ErrNotExist)
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
