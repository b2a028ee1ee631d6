package ports

import "context"

// Fetcher downloads a remote resource to a local file, overwriting dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) bool
}
