package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/clauselens/clauselens/internal/domain/conversation"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Save insert/update a resolved conversation entry
func (r *ConversationRepository) Save(ctx context.Context, tenant, sessionID string, e *domain.Entry) error {
	const q = `
INSERT INTO conversation_entries
(id, tenant_id, session_id, question, answer, citations_json, asked_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 answer=VALUES(answer), citations_json=VALUES(citations_json);
`
	citations := "[]"
	if len(e.Citations) > 0 {
		b, err := json.Marshal(e.Citations)
		if err != nil {
			return err
		}
		citations = string(b)
	}
	asked := e.AskedAt
	if asked.IsZero() {
		asked = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(e.ID), stringOrDash(tenant), sessionID, e.Question, e.Answer, citations, asked,
	)
	return err
}

// ListBySession returns entries in submission order
func (r *ConversationRepository) ListBySession(ctx context.Context, tenant, sessionID string, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, question, answer, citations_json, asked_at
FROM conversation_entries
WHERE tenant_id=? AND session_id=?
ORDER BY asked_at ASC, id ASC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var id, citations string
		if err := rows.Scan(&id, &e.Question, &e.Answer, &citations, &e.AskedAt); err != nil {
			return nil, err
		}
		e.ID = domain.EntryID(id)
		if citations != "" && citations != "[]" {
			if err := json.Unmarshal([]byte(citations), &e.Citations); err != nil {
				return nil, err
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
