package session

import (
	"time"

	"github.com/clauselens/clauselens/internal/domain/analysis"
)

// State enum for the analysis lifecycle
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateAnalyzed  State = "analyzed"
	StateFailed    State = "failed"
)

// Record is a persisted analysis history row, kept for auditing and the
// tenant history endpoint. The live session itself is in-memory only.
type Record struct {
	ID         string                  `json:"id"`
	TenantID   string                  `json:"tenant_id"`
	SessionID  string                  `json:"session_id"`
	DocumentID string                  `json:"document_id"`
	CharCount  int                     `json:"char_count"`
	Counts     analysis.SeverityCounts `json:"counts"`
	Overall    analysis.Severity       `json:"overall"`
	ReportURL  string                  `json:"report_url,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}
