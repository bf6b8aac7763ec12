package conversation

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/internal/application"
	"github.com/clauselens/clauselens/internal/application/highlight"
	domain "github.com/clauselens/clauselens/internal/domain/conversation"
)

// Gate is the analyzed/not-analyzed check the log depends on, exposed by the
// analysis session.
type Gate interface {
	Analyzed() bool
	Snapshot() string
	DocumentID() string
}

// AskStatus enumerates the possible outcomes of Ask
type AskStatus string

const (
	AskAnswered      AskStatus = "answered"
	AskFailed        AskStatus = "failed"
	AskEmptyQuestion AskStatus = "empty_question"
	AskNotAnalyzed   AskStatus = "not_analyzed"
	AskBusy          AskStatus = "busy"
)

// AskOutcome is observed by callers instead of a raised failure
type AskOutcome struct {
	Status  AskStatus     `json:"status"`
	Message string        `json:"message,omitempty"`
	Entry   *domain.Entry `json:"entry,omitempty"`
}

// Log owns the ordered question/answer history with optimistic-update
// semantics. Entries are append-only; only the last entry mutates, exactly
// once, pending -> resolved.
type Log struct {
	Answerer domain.Answerer
	Gate     Gate
	Resolver *highlight.Resolver
	Repo     domain.Repository // optional, best-effort audit trail
	Clock    application.Clock
	Tenant   string
	Session  string

	mu      sync.Mutex
	entries []domain.Entry
	busy    bool
}

// Entries returns a copy of the log in submission order
func (l *Log) Entries() []domain.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Ask appends an optimistic pending entry, calls the remote collaborator
// with the stored snapshot, and reconciles the entry by identity. Remote
// failures are recorded in the log like a normal answer, never re-thrown.
// While the last entry is pending further calls are rejected.
func (l *Log) Ask(ctx context.Context, question string) AskOutcome {
	q := strings.TrimSpace(question)
	if q == "" {
		return AskOutcome{Status: AskEmptyQuestion}
	}
	if l.Gate == nil || !l.Gate.Analyzed() {
		return AskOutcome{
			Status:  AskNotAnalyzed,
			Message: "analyze the document first before asking questions",
		}
	}

	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return AskOutcome{Status: AskBusy, Message: "a question is already pending"}
	}
	l.busy = true
	id := domain.EntryID(uuid.New().String())
	l.entries = append(l.entries, domain.Entry{
		ID:       id,
		Question: q,
		Answer:   domain.PendingAnswer,
		AskedAt:  l.Clock.Now(),
	})
	// Snapshot captured at last successful analysis, never re-fetched here
	docText := l.Gate.Snapshot()
	docID := l.Gate.DocumentID()
	l.mu.Unlock()

	ans, err := l.Answerer.Ask(ctx, docID, q, docText)

	var entry domain.Entry
	status := AskAnswered
	if err != nil {
		entry = l.resolve(id, "Error: "+err.Error(), nil)
		status = AskFailed
	} else {
		entry = l.resolve(id, ans.Text, ans.Citations)
	}

	l.persist(ctx, &entry)

	return AskOutcome{Status: status, Entry: &entry}
}

// resolve reconciles the pending entry by identity, not by index
func (l *Log) resolve(id domain.EntryID, answer string, citations []domain.Citation) domain.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ID == id {
			if l.entries[i].Pending() {
				l.entries[i].Answer = answer
				l.entries[i].Citations = citations
			}
			return l.entries[i]
		}
	}
	// unreachable while the busy guard holds; returns a detached record
	return domain.Entry{ID: id, Answer: answer, Citations: citations}
}

func (l *Log) persist(ctx context.Context, e *domain.Entry) {
	if l.Repo == nil {
		return
	}
	if err := l.Repo.Save(ctx, l.Tenant, l.Session, e); err != nil {
		log.Printf("conversation save error: tenant=%s session=%s err=%v", l.Tenant, l.Session, err)
	}
}

// ActivateCitation resolves the citation text of (entryIndex, citationIndex)
// and delegates to the highlight resolver. Missing or empty citation text is
// a silent no-op.
func (l *Log) ActivateCitation(ctx context.Context, entryIndex, citationIndex int) highlight.Outcome {
	l.mu.Lock()
	var text string
	if entryIndex >= 0 && entryIndex < len(l.entries) {
		cits := l.entries[entryIndex].Citations
		if citationIndex >= 0 && citationIndex < len(cits) {
			text = cits[citationIndex].Text
		}
	}
	l.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return highlight.Outcome{Status: highlight.StatusSkipped}
	}
	// citations carry no severity; the resolver falls back to the default color
	return l.Resolver.ResolveAndHighlight(ctx, text, "")
}
