package postgres

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

// Save inserts or updates an analysis history record
func (r *SessionRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analysis_sessions
  (id, tenant_id, session_id, document_id, char_count,
   critical, high, medium, low, findings_total,
   overall, report_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  document_id=EXCLUDED.document_id, char_count=EXCLUDED.char_count,
  critical=EXCLUDED.critical, high=EXCLUDED.high,
  medium=EXCLUDED.medium, low=EXCLUDED.low,
  findings_total=EXCLUDED.findings_total,
  overall=EXCLUDED.overall, report_url=EXCLUDED.report_url;
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

// Get returns one record by id
func (r *SessionRepository) Get(ctx context.Context, tenant, id string) (*domain.Record, error) {
	const q = `
SELECT id, tenant_id, session_id, document_id, char_count,
       critical, high, medium, low, findings_total,
       overall, report_url, created_at
FROM analysis_sessions
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, tenant, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
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
WHERE tenant_id=$1
ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Paginate returns a page of records ordered by created_at desc
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
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
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
