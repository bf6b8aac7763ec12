package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/clauselens/clauselens/internal/domain/analysis"
	domain "github.com/clauselens/clauselens/internal/domain/session"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save insert/update an analysis history record
func (r *SessionRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analysis_sessions
(id, tenant_id, session_id, document_id, char_count,
 critical, high, medium, low, findings_total,
 overall, report_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 document_id=VALUES(document_id), char_count=VALUES(char_count),
 critical=VALUES(critical), high=VALUES(high), medium=VALUES(medium), low=VALUES(low),
 findings_total=VALUES(findings_total),
 overall=VALUES(overall), report_url=VALUES(report_url);
`
	tenant := stringOrDash(rec.TenantID)
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, tenant, rec.SessionID, rec.DocumentID, rec.CharCount,
		rec.Counts.Critical, rec.Counts.High, rec.Counts.Medium, rec.Counts.Low, rec.Counts.Total,
		string(rec.Overall), rec.ReportURL, created,
	)
	return err
}

// Get by ID + Tenant
func (r *SessionRepository) Get(ctx context.Context, tenant, id string) (*domain.Record, error) {
	const q = `
SELECT id, tenant_id, session_id, document_id, char_count,
       critical, high, medium, low, findings_total,
       overall, report_url, created_at
FROM analysis_sessions
WHERE tenant_id=? AND id=? LIMIT 1;
`
	return scanRecord(r.db.QueryRowContext(ctx, q, tenant, id))
}

// Latest records per tenant
func (r *SessionRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, session_id, document_id, char_count,
       critical, high, medium, low, findings_total,
       overall, report_url, created_at
FROM analysis_sessions
WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Paginate returns a page ordered by created_at desc
func (r *SessionRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, session_id, document_id, char_count,
       critical, high, medium, low, findings_total,
       overall, report_url, created_at
FROM analysis_sessions
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var overall string
	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.SessionID, &rec.DocumentID, &rec.CharCount,
		&rec.Counts.Critical, &rec.Counts.High, &rec.Counts.Medium, &rec.Counts.Low, &rec.Counts.Total,
		&overall, &rec.ReportURL, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Overall = analysis.ParseSeverity(overall)
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*domain.Record, error) {
	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
