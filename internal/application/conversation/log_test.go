package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/application/highlight"
	domain "github.com/clauselens/clauselens/internal/domain/conversation"
	"github.com/clauselens/clauselens/internal/infra/editor/memdoc"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fakeGate struct {
	analyzed bool
	snapshot string
	docID    string
}

func (g *fakeGate) Analyzed() bool     { return g.analyzed }
func (g *fakeGate) Snapshot() string   { return g.snapshot }
func (g *fakeGate) DocumentID() string { return g.docID }

type fakeAnswerer struct {
	mu      sync.Mutex
	ans     *domain.Answer
	err     error
	calls   int
	gotDoc  string
	gotText string
	started chan struct{} // may be nil
	release chan struct{} // may be nil
}

func (a *fakeAnswerer) Ask(ctx context.Context, documentID, question, documentText string) (*domain.Answer, error) {
	a.mu.Lock()
	a.calls++
	a.gotDoc = documentID
	a.gotText = documentText
	a.mu.Unlock()
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.release != nil {
		<-a.release
	}
	return a.ans, a.err
}

func (a *fakeAnswerer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func newLog(an *fakeAnswerer, gate *fakeGate) *Log {
	return &Log{
		Answerer: an,
		Gate:     gate,
		Resolver: &highlight.Resolver{Editor: memdoc.New("")},
		Clock:    fixedClock{at: time.UnixMilli(1700000000000)},
		Tenant:   "acme",
		Session:  "sess-1",
	}
}

func analyzedGate() *fakeGate {
	return &fakeGate{analyzed: true, snapshot: "the contract text", docID: "doc_from_word_1"}
}

func TestAskEmptyQuestionNeverCallsRemote(t *testing.T) {
	an := &fakeAnswerer{}
	l := newLog(an, analyzedGate())

	assert.Equal(t, AskEmptyQuestion, l.Ask(context.Background(), "").Status)
	assert.Equal(t, AskEmptyQuestion, l.Ask(context.Background(), "   ").Status)
	assert.Zero(t, an.callCount())
	assert.Zero(t, l.Len())
}

func TestAskBeforeAnalysis(t *testing.T) {
	an := &fakeAnswerer{}
	l := newLog(an, &fakeGate{analyzed: false})

	out := l.Ask(context.Background(), "What is the term?")

	assert.Equal(t, AskNotAnalyzed, out.Status)
	assert.Contains(t, out.Message, "analyze the document first")
	assert.Zero(t, an.callCount())
	assert.Zero(t, l.Len())
}

func TestAskSuccessReconcilesPendingEntry(t *testing.T) {
	an := &fakeAnswerer{ans: &domain.Answer{
		Text: "Either party may terminate with 30 days notice.",
		Citations: []domain.Citation{
			{Text: "terminated by either party with 30 days notice", Label: "Clause 7"},
		},
	}}
	l := newLog(an, analyzedGate())

	out := l.Ask(context.Background(), "  How can this be terminated?  ")

	require.Equal(t, AskAnswered, out.Status)
	entries := l.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "How can this be terminated?", e.Question)
	assert.Equal(t, "Either party may terminate with 30 days notice.", e.Answer)
	assert.False(t, e.Pending())
	require.Len(t, e.Citations, 1)
	assert.Equal(t, "Clause 7", e.Citations[0].Label)

	// the Q&A call used the stored snapshot and document id, not a re-fetch
	assert.Equal(t, "the contract text", an.gotText)
	assert.Equal(t, "doc_from_word_1", an.gotDoc)
}

func TestAskPendingSentinelWhileInFlight(t *testing.T) {
	an := &fakeAnswerer{
		ans:     &domain.Answer{Text: "done"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	l := newLog(an, analyzedGate())

	done := make(chan AskOutcome, 1)
	go func() { done <- l.Ask(context.Background(), "first?") }()
	<-an.started

	// optimistic entry is visible with the sentinel and no citations
	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.PendingAnswer, entries[0].Answer)
	assert.True(t, entries[0].Pending())
	assert.Empty(t, entries[0].Citations)

	// a second ask while pending is rejected, not queued
	second := l.Ask(context.Background(), "second?")
	assert.Equal(t, AskBusy, second.Status)
	assert.Equal(t, 1, l.Len())

	close(an.release)
	require.Equal(t, AskAnswered, (<-done).Status)
	assert.Equal(t, "done", l.Entries()[0].Answer)
}

func TestAskFailureRecordedAsAnswer(t *testing.T) {
	an := &fakeAnswerer{err: errors.New("backend unreachable: connection refused")}
	l := newLog(an, analyzedGate())

	out := l.Ask(context.Background(), "What about liability?")

	assert.Equal(t, AskFailed, out.Status)
	entries := l.Entries()
	require.Len(t, entries, 1)
	// question preserved verbatim, failure recorded like a normal answer
	assert.Equal(t, "What about liability?", entries[0].Question)
	assert.Equal(t, "Error: backend unreachable: connection refused", entries[0].Answer)
	assert.Empty(t, entries[0].Citations)
	assert.False(t, entries[0].Pending())
}

func TestLogGrowsByOnePerAskRegardlessOfOutcome(t *testing.T) {
	an := &fakeAnswerer{ans: &domain.Answer{Text: "ok"}}
	l := newLog(an, analyzedGate())

	require.Equal(t, AskAnswered, l.Ask(context.Background(), "q1").Status)
	an.err = errors.New("boom")
	require.Equal(t, AskFailed, l.Ask(context.Background(), "q2").Status)
	an.err = nil
	require.Equal(t, AskAnswered, l.Ask(context.Background(), "q3").Status)

	entries := l.Entries()
	require.Len(t, entries, 3)
	// submission order is preserved
	assert.Equal(t, "q1", entries[0].Question)
	assert.Equal(t, "q2", entries[1].Question)
	assert.Equal(t, "q3", entries[2].Question)
}

func TestActivateCitation(t *testing.T) {
	doc := memdoc.New("This Agreement may be terminated by either party with 30 days notice.")
	an := &fakeAnswerer{ans: &domain.Answer{
		Text:      "30 days notice is required.",
		Citations: []domain.Citation{{Text: "terminated by either party"}, {Text: ""}},
	}}
	l := newLog(an, analyzedGate())
	l.Resolver = &highlight.Resolver{Editor: doc}

	require.Equal(t, AskAnswered, l.Ask(context.Background(), "termination?").Status)

	out := l.ActivateCitation(context.Background(), 0, 0)
	assert.Equal(t, highlight.StatusHighlighted, out.Status)
	assert.Equal(t, highlight.DefaultColor, out.Color)

	// empty citation text and out-of-range indices are silent no-ops
	assert.Equal(t, highlight.StatusSkipped, l.ActivateCitation(context.Background(), 0, 1).Status)
	assert.Equal(t, highlight.StatusSkipped, l.ActivateCitation(context.Background(), 0, 5).Status)
	assert.Equal(t, highlight.StatusSkipped, l.ActivateCitation(context.Background(), 9, 0).Status)
	assert.Equal(t, highlight.StatusSkipped, l.ActivateCitation(context.Background(), -1, 0).Status)
}
