package analysis

import "context"

// Analyzer port (interface to the remote analysis collaborator)
type Analyzer interface {
	Analyze(ctx context.Context, documentText string) (*Result, error)
}
