// Package up2date compares the local installer script against the
// published copy.
package up2date

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/lsst/lsst/internal/ports"
)

// Outcome is the result of a comparison. None of them is fatal.
type Outcome int

const (
	// Match means the local copy is identical to the published one.
	Match Outcome = iota
	// Differ means the copies differ.
	Differ
	// Error means the comparison itself could not be made.
	Error
)

func (o Outcome) String() string {
	switch o {
	case Match:
		return "match"
	case Differ:
		return "differ"
	default:
		return "error"
	}
}

// Summary counts changed lines between the local and published copies.
type Summary struct {
	Added   int
	Removed int
}

// Checker fetches the published script and diffs it with the local one.
type Checker struct {
	fetcher ports.Fetcher
	fs      ports.FileSystem
	logger  ports.Logger
	url     string
	self    string
	tempDir string

	last Summary
}

// Option configures a Checker.
type Option func(*Checker)

// WithTempDir sets where the published copy is downloaded.
func WithTempDir(dir string) Option {
	return func(c *Checker) {
		c.tempDir = dir
	}
}

// NewChecker creates a Checker comparing the file at self with url.
func NewChecker(fetcher ports.Fetcher, fs ports.FileSystem, logger ports.Logger, url, self string, opts ...Option) *Checker {
	c := &Checker{
		fetcher: fetcher,
		fs:      fs,
		logger:  logger,
		url:     url,
		self:    self,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check never fails the caller. A match is silent; everything else is
// reported as a warning.
func (c *Checker) Check(ctx context.Context) Outcome {
	summary, err := c.compare(ctx)
	if err != nil {
		c.logger.Warn(ctx, "There is an error in comparing the official version with the local copy of the script.",
			ports.F("url", c.url),
			ports.F("error", err.Error()))
		return Error
	}
	c.last = summary
	if summary == (Summary{}) {
		return Match
	}

	c.logger.Warn(ctx, fmt.Sprintf("This script differs from the official version at %s. "+
		"This may be an expected result if you are testing a development version.", c.url),
		ports.F("added", summary.Added),
		ports.F("removed", summary.Removed))
	return Differ
}

// Last returns the line counts of the most recent successful comparison.
func (c *Checker) Last() Summary {
	return c.last
}

func (c *Checker) compare(ctx context.Context) (Summary, error) {
	local, err := c.fs.ReadFile(c.self)
	if err != nil {
		return Summary{}, fmt.Errorf("reading %s: %w", c.self, err)
	}

	tmp, err := c.fs.CreateTemp(c.tempDir, "up2date-*"+filepath.Ext(c.self))
	if err != nil {
		return Summary{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = c.fs.Remove(tmp) }()

	if err := c.fetcher.Fetch(ctx, c.url, tmp); err != nil {
		return Summary{}, fmt.Errorf("downloading %s: %w", c.url, err)
	}
	published, err := c.fs.ReadFile(tmp)
	if err != nil {
		return Summary{}, fmt.Errorf("reading %s: %w", tmp, err)
	}

	return Diff(string(local), string(published)), nil
}

// Diff counts whole lines added to or removed from local to reach
// published.
func Diff(local, published string) Summary {
	if local == published {
		return Summary{}
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(local, published)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var s Summary
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Added += n
		case diffmatchpatch.DiffDelete:
			s.Removed += n
		}
	}
	return s
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, r := range text {
		if r == '\n' {
			n++
		}
	}
	if text[len(text)-1] != '\n' {
		n++
	}
	return n
}
