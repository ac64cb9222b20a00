package console

import (
	"context"
	"log/slog"

	"payesh/internal/core/domain"
)

// Notifier renders toasts to the structured log. The daemon has no UI
// surface; operators and downstream consumers read the notice stream
// from here.
type Notifier struct {
	log *slog.Logger
}

func NewNotifier(log *slog.Logger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Notify(ctx context.Context, notice domain.Notice) error {
	attrs := []any{
		slog.String("severity", string(notice.Severity)),
		slog.String("text", notice.Text),
		slog.String("dedupe_key", notice.DedupeKey),
		slog.String("subject_id", notice.Subject),
		slog.String("event", notice.Event),
	}
	if notice.Severity == domain.SeverityError {
		n.log.ErrorContext(ctx, "toast", attrs...)
		return nil
	}
	n.log.InfoContext(ctx, "toast", attrs...)
	return nil
}
