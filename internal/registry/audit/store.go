// Package audit is the append-only trail of committed field mutations. Every
// record carries a monotonic counter; entries are keyed (animalID, seq) with
// seq contiguous from 1 and never reused.
package audit

import (
	"context"

	"herdbook/internal/registry/models"
	"herdbook/pkg/platform/sentinel"
)

// ErrNotFound is returned for unknown (animalID, seq) keys.
var ErrNotFound = sentinel.ErrNotFound

// Store persists audit entries and the per-record counters. Append assigns
// the next sequence number and advances the counter in the same write so the
// counter always equals the number of stored entries for that record.
type Store interface {
	Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
	Entry(ctx context.Context, id models.AnimalID, seq uint64) (models.AuditEntry, error)
	// Count returns the current counter, zero for records never mutated.
	Count(ctx context.Context, id models.AnimalID) (uint64, error)
}
