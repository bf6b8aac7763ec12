package coordinator

import (
	"context"
	"strings"

	"github.com/clauselens/clauselens/internal/application"
	appconv "github.com/clauselens/clauselens/internal/application/conversation"
	apphighlight "github.com/clauselens/clauselens/internal/application/highlight"
	appsession "github.com/clauselens/clauselens/internal/application/session"
	"github.com/clauselens/clauselens/internal/domain/analysis"
	domainconv "github.com/clauselens/clauselens/internal/domain/conversation"
	"github.com/clauselens/clauselens/internal/domain/editor"
	domainsession "github.com/clauselens/clauselens/internal/domain/session"
)

// Deps are the collaborators one coordinator instance is wired with
type Deps struct {
	Editor   editor.Editor
	Analyzer analysis.Analyzer
	Answerer domainconv.Answerer
	History  domainsession.Repository    // optional
	ConvRepo domainconv.Repository       // optional
	Reports  domainsession.ReportArchive // optional
	Clock    application.Clock           // defaults to SystemClock
	IDScheme appsession.DocumentIDScheme // defaults to time-based
}

// Coordinator binds the analysis session and the conversation log for one
// editor session. It holds no business logic beyond wiring and the
// analyzed-gate check; construct one per editor session, discard on reload.
type Coordinator struct {
	tenant   string
	id       string
	editor   editor.Editor
	session  *appsession.Service
	log      *appconv.Log
	resolver *apphighlight.Resolver
}

// New wires a coordinator from its collaborators
func New(tenant, id string, d Deps) *Coordinator {
	clock := d.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}
	resolver := &apphighlight.Resolver{Editor: d.Editor}
	sess := &appsession.Service{
		Editor:   d.Editor,
		Analyzer: d.Analyzer,
		History:  d.History,
		Reports:  d.Reports,
		Clock:    clock,
		Tenant:   tenant,
		ID:       id,
		IDScheme: d.IDScheme,
	}
	cl := &appconv.Log{
		Answerer: d.Answerer,
		Gate:     sess,
		Resolver: resolver,
		Repo:     d.ConvRepo,
		Clock:    clock,
		Tenant:   tenant,
		Session:  id,
	}
	return &Coordinator{
		tenant:   tenant,
		id:       id,
		editor:   d.Editor,
		session:  sess,
		log:      cl,
		resolver: resolver,
	}
}

func (c *Coordinator) ID() string     { return c.id }
func (c *Coordinator) Tenant() string { return c.tenant }

// State is the single externally visible lifecycle state
func (c *Coordinator) State() domainsession.State { return c.session.State() }

// LoadDocument pushes document text into the editor adapter when it supports
// it (the sidecar deployment, where the add-in ships the text over).
func (c *Coordinator) LoadDocument(text string) bool {
	if loader, ok := c.editor.(editor.Loader); ok {
		loader.Load(text)
		return true
	}
	return false
}

// RequestAnalysis delegates to the analysis session
func (c *Coordinator) RequestAnalysis(ctx context.Context) appsession.AnalyzeOutcome {
	return c.session.RequestAnalysis(ctx)
}

// Ask delegates to the conversation log; the log consults the analyzed gate
func (c *Coordinator) Ask(ctx context.Context, question string) appconv.AskOutcome {
	return c.log.Ask(ctx, question)
}

// Entries returns the conversation history in submission order
func (c *Coordinator) Entries() []domainconv.Entry { return c.log.Entries() }

// Result is the currently displayed analysis, nil unless Analyzed
func (c *Coordinator) Result() *analysis.Result { return c.session.Result() }

// Overall severity of the current result
func (c *Coordinator) Overall() analysis.Severity { return c.session.Overall() }

// DocumentID is the opaque token of the current snapshot
func (c *Coordinator) DocumentID() string { return c.session.DocumentID() }

// FailureReason of the last failed analysis, empty otherwise
func (c *Coordinator) FailureReason() string { return c.session.FailureReason() }

// HighlightRisk resolves the clause text of the risk at the given position
// in the currently displayed result. Out-of-range indices and risks without
// clause text are silent no-ops.
func (c *Coordinator) HighlightRisk(ctx context.Context, riskIndex int) apphighlight.Outcome {
	res := c.session.Result()
	if res == nil || riskIndex < 0 || riskIndex >= len(res.Risks) {
		return apphighlight.Outcome{Status: apphighlight.StatusSkipped}
	}
	r := res.Risks[riskIndex]
	if strings.TrimSpace(r.ClauseText) == "" {
		return apphighlight.Outcome{Status: apphighlight.StatusSkipped}
	}
	return c.resolver.ResolveAndHighlight(ctx, r.ClauseText, string(r.Level))
}

// ActivateCitation delegates to the conversation log
func (c *Coordinator) ActivateCitation(ctx context.Context, entryIndex, citationIndex int) apphighlight.Outcome {
	return c.log.ActivateCitation(ctx, entryIndex, citationIndex)
}
