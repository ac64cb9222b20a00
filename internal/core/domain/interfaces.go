package domain

import "context"

// NoticeJournal persists dispatched notices as an audit trail.
// Journal failure must never block or fail dispatch.
type NoticeJournal interface {
	Append(ctx context.Context, n Notice) error
}
