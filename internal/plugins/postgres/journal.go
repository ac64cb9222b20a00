package postgres

import (
	"context"
	"database/sql"

	"payesh/internal/core/domain"
)

// NoticeJournal persists every dispatched notice as an audit trail.
type NoticeJournal struct {
	db *sql.DB
}

func NewNoticeJournal(db *sql.DB) *NoticeJournal {
	return &NoticeJournal{db: db}
}

func (j *NoticeJournal) Append(ctx context.Context, n domain.Notice) error {
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO notices (
            id, subject_id, resource, channel, event, severity, body, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `,
		n.ID,
		n.Subject,
		n.Resource,
		n.Channel,
		n.Event,
		n.Severity,
		n.Text,
		n.CreatedAt,
	)
	return err
}
