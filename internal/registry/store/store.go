// Package store holds the authoritative record table, the fingerprint index,
// and the registry scalar state.
package store

import (
	"context"

	"herdbook/internal/registry/models"
	"herdbook/pkg/platform/sentinel"
)

// Store errors are sentinel-based so the service layer can translate them
// into coded domain errors without string inspection.
var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrDuplicateFingerprint rejects a create whose fingerprint is already
	// indexed. The index never forgets an entry, so the rejection is permanent.
	ErrDuplicateFingerprint = sentinel.ErrConflict
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory, Postgres, or cached persistence without rewiring
// business code.

// AnimalStore is the record table plus the fingerprint index. Create owns id
// assignment and uniqueness; Mutate applies exactly one field change chosen
// by the facade.
type AnimalStore interface {
	// Create assigns the next sequential id, inserts the record, and indexes
	// its fingerprint. Returns ErrDuplicateFingerprint without side effects
	// when the fingerprint is already indexed.
	Create(ctx context.Context, record models.AnimalRecord) (models.AnimalID, error)
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id models.AnimalID) (models.AnimalRecord, error)
	// GetByFingerprint resolves through the index, then Get.
	GetByFingerprint(ctx context.Context, fp models.Fingerprint) (models.AnimalRecord, error)
	// Mutate applies fn to an existing record and persists the result.
	// Returns ErrNotFound when the id is unassigned.
	Mutate(ctx context.Context, id models.AnimalID, fn func(*models.AnimalRecord)) error
}

// Invalidator is implemented by stores that layer a cache over the record
// table. The facade calls it after the transaction holding a mutation has
// committed; plain stores simply never implement it.
type Invalidator interface {
	Invalidate(ctx context.Context, id models.AnimalID)
}

// StateStore holds the registry scalars: last assigned id, the pause gate,
// and the admin account.
type StateStore interface {
	State(ctx context.Context) (models.RegistryState, error)
	SetPaused(ctx context.Context, paused bool) error
	SetAdmin(ctx context.Context, admin models.Account) error
}
