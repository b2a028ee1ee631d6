package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/lsst/lsst/internal/ports"
)

// FetchCall records one Fetch invocation.
type FetchCall struct {
	URL  string
	Dest string
}

// Fetcher is a test double for ports.Fetcher that writes canned bodies into
// a FileSystem mock.
type Fetcher struct {
	mu     sync.Mutex
	fs     ports.FileSystem
	bodies map[string][]byte
	errors map[string]error
	calls  []FetchCall
}

// NewFetcher creates a Fetcher that writes into fs.
func NewFetcher(fs ports.FileSystem) *Fetcher {
	return &Fetcher{
		fs:     fs,
		bodies: make(map[string][]byte),
		errors: make(map[string]error),
	}
}

// AddBody registers the content served for url.
func (f *Fetcher) AddBody(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[url] = []byte(body)
}

// AddError registers a failure for url.
func (f *Fetcher) AddError(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[url] = err
}

// Fetch writes the registered body for url to dest.
func (f *Fetcher) Fetch(_ context.Context, url, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, FetchCall{URL: url, Dest: dest})
	err, failed := f.errors[url]
	body, ok := f.bodies[url]
	f.mu.Unlock()

	if failed {
		return err
	}
	if !ok {
		return fmt.Errorf("no mock body for url: %s", url)
	}
	return f.fs.WriteFile(dest, body, 0o644)
}

// Calls returns all recorded fetches.
func (f *Fetcher) Calls() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]FetchCall, len(f.calls))
	copy(calls, f.calls)
	return calls
}

var _ ports.Fetcher = (*Fetcher)(nil)

// Prompter answers Confirm with a fixed reply and records the questions.
type Prompter struct {
	Answer    bool
	Questions []string
}

// Confirm records question and returns Answer.
func (p *Prompter) Confirm(question string) bool {
	p.Questions = append(p.Questions, question)
	return p.Answer
}

var _ ports.Prompter = (*Prompter)(nil)
