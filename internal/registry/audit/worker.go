package audit

import (
	"context"
	"log/slog"

	"herdbook/internal/registry/models"
)

// Sink receives committed audit entries for fan-out. Satisfied by Publisher.
type Sink interface {
	Publish(ctx context.Context, entry models.AuditEntry) error
}

// Worker consumes committed audit entries from the trail's inbox and hands
// them to the sink. It keeps background publishing off the mutation path;
// sink failures are logged and skipped, never retried against a log that is
// already durable in the store.
type Worker struct {
	sink   Sink
	inbox  <-chan models.AuditEntry
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan models.AuditEntry, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.WarnContext(ctx, "audit fan-out failed",
					"animal_id", uint64(entry.AnimalID),
					"seq", entry.Seq,
					"error", err,
				)
			}
		}
	}
}
