package audit

import (
	"context"

	"herdbook/internal/registry/models"
)

// Trail is the service face of the audit log. It is append-only and uses the
// store layer for persistence so tests can swap sinks easily. When an inbox
// channel is attached, the facade hands committed entries to the fan-out
// worker through Notify; delivery there is best effort and never unwinds a
// commit.
type Trail struct {
	store Store
	inbox chan<- models.AuditEntry
}

func NewTrail(store Store) *Trail {
	return &Trail{store: store}
}

// WithInbox attaches the fan-out channel drained by the publisher worker.
func (t *Trail) WithInbox(inbox chan<- models.AuditEntry) *Trail {
	t.inbox = inbox
	return t
}

// Append records one committed field mutation. Only the facade calls this,
// and only after the record mutation itself has been applied within the same
// transactional unit. Append never touches the inbox: while the transaction
// is open the entry may still roll back, so fan-out waits for Notify.
func (t *Trail) Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	return t.store.Append(ctx, entry)
}

// Notify hands an entry to the fan-out worker. The facade calls it only once
// the transaction holding the entry has committed, so downstream consumers
// never see an event for a rolled-back mutation. A full inbox drops the
// fan-out copy, never the stored entry.
func (t *Trail) Notify(entry models.AuditEntry) {
	if t.inbox == nil {
		return
	}
	select {
	case t.inbox <- entry:
	default:
	}
}

func (t *Trail) Entry(ctx context.Context, id models.AnimalID, seq uint64) (models.AuditEntry, error) {
	return t.store.Entry(ctx, id, seq)
}

func (t *Trail) Count(ctx context.Context, id models.AnimalID) (uint64, error) {
	return t.store.Count(ctx, id)
}
