package editor

import "context"

// SearchOptions mirror the host editor's search switches
type SearchOptions struct {
	MatchCase      bool
	MatchWholeWord bool
}

// Range is one match inside the live document
type Range interface {
	// Start and End are rune offsets into the document text
	Start() int
	End() int
	Text() string

	Highlight(ctx context.Context, color string) error
	Select(ctx context.Context) error
}

// Editor port (interface to the host document editor). Every method may
// suspend on the host's event loop.
type Editor interface {
	FullText(ctx context.Context) (string, error)
	Search(ctx context.Context, text string, opts SearchOptions) ([]Range, error)
}

// Loader is implemented by editor adapters whose content is pushed by the
// client rather than read in place (the sidecar deployment).
type Loader interface {
	Load(text string)
}
