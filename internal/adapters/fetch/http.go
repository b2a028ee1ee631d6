package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lsst/lsst/internal/domain/config"
	"github.com/lsst/lsst/internal/ports"
)

// Progress receives transfer updates from HTTPFetcher.
type Progress interface {
	Start(name string, total int64)
	Update(written, total int64, detail string)
	Finish(err error)
}

// HTTPFetcher downloads with net/http and reports progress.
type HTTPFetcher struct {
	client   *http.Client
	progress Progress
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithProgress sets the progress sink.
func WithProgress(p Progress) HTTPOption {
	return func(f *HTTPFetcher) {
		f.progress = p
	}
}

// NewHTTPFetcher creates a native fetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{Timeout: 0}, // bounded by ctx
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url to dest, following redirects.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return config.NewUserError(config.ErrCodeExternalCommandFailed, "download failed").
			WithContext(url).
			WithUnderlying(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return config.NewUserError(config.ErrCodeExternalCommandFailed, fmt.Sprintf("bad status: %s", resp.Status)).
			WithContext(url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = out
	if f.progress != nil {
		f.progress.Start(path.Base(req.URL.Path), resp.ContentLength)
		pw := &progressWriter{sink: f.progress, total: resp.ContentLength, start: time.Now()}
		w = io.MultiWriter(out, pw)
		defer func() { f.progress.Finish(err) }()
	}

	if _, err = io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	return nil
}

type progressWriter struct {
	sink    Progress
	total   int64
	written int64
	start   time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.written += int64(n)

	elapsed := time.Since(pw.start).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-3
	}
	speed := float64(pw.written) / elapsed

	var detail string
	if pw.total > 0 {
		detail = fmt.Sprintf("%s / %s (%s/s)",
			humanize.Bytes(uint64(pw.written)),
			humanize.Bytes(uint64(pw.total)),
			humanize.Bytes(uint64(speed)))
	} else {
		detail = fmt.Sprintf("%s downloaded", humanize.Bytes(uint64(pw.written)))
	}
	pw.sink.Update(pw.written, pw.total, detail)
	return n, nil
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)
