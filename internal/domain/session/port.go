package session

import "context"

// Repository port for analysis history persistence
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, tenant, id string) (*Record, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Record, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Record, error)
}

// ReportArchive port for storing analysis report text
type ReportArchive interface {
	UploadReport(ctx context.Context, key, report string) (string, error)
}
