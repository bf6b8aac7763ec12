package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/internal/application"
	"github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/domain/editor"
	domain "github.com/clauselens/clauselens/internal/domain/session"
)

// DocumentIDScheme selects how the opaque document identifier passed to the
// Q&A collaborator is derived.
type DocumentIDScheme string

const (
	// DocumentIDTime derives the id from the analysis timestamp
	DocumentIDTime DocumentIDScheme = "time"
	// DocumentIDContent derives the id from the snapshot content, stable
	// across re-analysis of identical text
	DocumentIDContent DocumentIDScheme = "content"
)

// AnalyzeStatus enumerates the possible outcomes of RequestAnalysis
type AnalyzeStatus string

const (
	AnalyzeCompleted      AnalyzeStatus = "completed"
	AnalyzeEmptyDocument  AnalyzeStatus = "empty_document"
	AnalyzeAlreadyRunning AnalyzeStatus = "already_running"
	AnalyzeFailed         AnalyzeStatus = "failed"
)

// AnalyzeOutcome is the data a caller observes instead of a raised failure
type AnalyzeOutcome struct {
	Status  AnalyzeStatus     `json:"status"`
	Message string            `json:"message,omitempty"`
	Result  *analysis.Result  `json:"result,omitempty"`
	Overall analysis.Severity `json:"overall,omitempty"`
}

// Service owns the single-flight analysis lifecycle and the current document
// snapshot. Safe for concurrent use.
type Service struct {
	Editor   editor.Editor
	Analyzer analysis.Analyzer
	History  domain.Repository    // optional, best-effort audit trail
	Reports  domain.ReportArchive // optional, report text archival
	Clock    application.Clock
	Tenant   string
	ID       string // session id
	IDScheme DocumentIDScheme

	mu       sync.Mutex
	state    domain.State
	snapshot string
	result   *analysis.Result
	docID    string
	failure  string
}

// State returns the current lifecycle state (Idle until the first request)
func (s *Service) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return domain.StateIdle
	}
	return s.state
}

// Analyzed gates the conversation log
func (s *Service) Analyzed() bool {
	return s.State() == domain.StateAnalyzed
}

// Snapshot is the immutable text captured at the last successful analysis
func (s *Service) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Result is the currently displayed analysis, nil unless Analyzed
func (s *Service) Result() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// DocumentID is the opaque token passed to the Q&A collaborator
func (s *Service) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// FailureReason is the display text of the last failed analysis
func (s *Service) FailureReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Overall reduces the current result's risks to a single severity
func (s *Service) Overall() analysis.Severity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return analysis.SeverityLow
	}
	return analysis.Overall(s.result.Risks)
}

// RequestAnalysis runs one analysis cycle. A second call while one is in
// flight is a no-op outcome, not an error and not a queued retry. Remote
// failures transition to Failed and are reported as data; a later call is
// always permitted again.
func (s *Service) RequestAnalysis(ctx context.Context) AnalyzeOutcome {
	s.mu.Lock()
	if s.state == domain.StateAnalyzing {
		s.mu.Unlock()
		return AnalyzeOutcome{
			Status:  AnalyzeAlreadyRunning,
			Message: "analysis already in progress",
		}
	}
	s.state = domain.StateAnalyzing
	s.mu.Unlock()

	text, err := s.Editor.FullText(ctx)
	if err != nil {
		return s.fail(fmt.Sprintf("failed to read document: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Lock()
		s.state = domain.StateIdle
		s.mu.Unlock()
		return AnalyzeOutcome{
			Status:  AnalyzeEmptyDocument,
			Message: "document has no analyzable text",
		}
	}

	res, err := s.Analyzer.Analyze(ctx, text)
	if err != nil {
		return s.fail(fmt.Sprintf("failed to analyze document: %v", err))
	}

	docID := s.documentID(text)

	// Replace the previous result wholesale: risk indices from older
	// results are invalidated atomically here.
	s.mu.Lock()
	s.snapshot = text
	s.result = res
	s.docID = docID
	s.failure = ""
	s.state = domain.StateAnalyzed
	s.mu.Unlock()

	s.record(ctx, text, res, docID)

	return AnalyzeOutcome{
		Status:  AnalyzeCompleted,
		Result:  res,
		Overall: analysis.Overall(res.Risks),
	}
}

// fail transitions to Failed retaining nothing from the attempt
func (s *Service) fail(reason string) AnalyzeOutcome {
	s.mu.Lock()
	s.state = domain.StateFailed
	s.snapshot = ""
	s.result = nil
	s.docID = ""
	s.failure = reason
	s.mu.Unlock()
	return AnalyzeOutcome{Status: AnalyzeFailed, Message: reason}
}

func (s *Service) documentID(text string) string {
	if s.IDScheme == DocumentIDContent {
		sum := sha256.Sum256([]byte(text))
		return "doc_sha_" + hex.EncodeToString(sum[:8])
	}
	return fmt.Sprintf("doc_from_word_%d", s.Clock.Now().UnixMilli())
}

// record persists the history row and archives the report. Best effort: a
// persistence failure never changes the analysis outcome.
func (s *Service) record(ctx context.Context, text string, res *analysis.Result, docID string) {
	if s.History == nil {
		return
	}
	rec := &domain.Record{
		ID:         uuid.New().String(),
		TenantID:   s.Tenant,
		SessionID:  s.ID,
		DocumentID: docID,
		CharCount:  len([]rune(text)),
		Counts:     analysis.CountBySeverity(res.Risks),
		Overall:    analysis.Overall(res.Risks),
		CreatedAt:  s.Clock.Now(),
	}
	if s.Reports != nil && res.Report != "" {
		key := fmt.Sprintf("%s/%s/%s.md", s.Tenant, s.ID, rec.ID)
		url, err := s.Reports.UploadReport(ctx, key, res.Report)
		if err != nil {
			log.Printf("report archive error: tenant=%s session=%s err=%v", s.Tenant, s.ID, err)
		} else {
			rec.ReportURL = url
		}
	}
	if err := s.History.Save(ctx, rec); err != nil {
		log.Printf("history save error: tenant=%s session=%s err=%v", s.Tenant, s.ID, err)
	}
}
