package conversation

import "context"

// Answerer port (interface to the remote question-answering collaborator)
type Answerer interface {
	Ask(ctx context.Context, documentID, question, documentText string) (*Answer, error)
}

// Repository port for persisting resolved entries (audit trail)
type Repository interface {
	Save(ctx context.Context, tenant, sessionID string, e *Entry) error
	ListBySession(ctx context.Context, tenant, sessionID string, limit int) ([]*Entry, error)
}
