// Package service is the registry facade: the only write path into the
// stores. Every mutating operation sequences guard checks, the identity store
// mutation, and the audit append inside one transactional unit, so a call
// either fully commits or leaves no trace.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"herdbook/internal/registry/audit"
	"herdbook/internal/registry/fingerprint"
	"herdbook/internal/registry/guard"
	"herdbook/internal/registry/metrics"
	"herdbook/internal/registry/models"
	"herdbook/internal/registry/store"
	dErrors "herdbook/pkg/domain-errors"
	"herdbook/pkg/requestcontext"
)

// Service orchestrates the guard layer, identity store, and audit trail. The
// caller's identity is taken from the invocation context, never from request
// parameters.
type Service struct {
	animals store.AnimalStore
	state   store.StateStore
	trail   *audit.Trail
	guard   *guard.Guard
	tx      TxRunner
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(animals store.AnimalStore, state store.StateStore, trail *audit.Trail, tx TxRunner, m *metrics.Metrics) *Service {
	return &Service{
		animals: animals,
		state:   state,
		trail:   trail,
		guard:   guard.New(animals, state),
		tx:      tx,
		metrics: m,
		tracer:  otel.Tracer("herdbook/registry"),
	}
}

// RegisterInput carries the registration-time fields. Breed, species, gender,
// birth date, and location form the identity fingerprint.
type RegisterInput struct {
	Breed       string
	Species     string
	Gender      string
	BirthDate   int64
	Location    string
	Description string
	Status      models.Status
	Tags        []string
}

// Register creates a new record owned by the caller, indexes its fingerprint,
// and advances the id counter. A duplicate fingerprint is rejected before any
// state changes.
func (s *Service) Register(ctx context.Context, input RegisterInput) (models.AnimalRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.register")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOp("register", time.Since(start).Seconds()) }()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return models.AnimalRecord{}, s.reject(err)
	}

	var created models.AnimalRecord
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.RequireNotPaused(ctx); err != nil {
			return err
		}
		if err := s.guard.ValidateRegistration(guard.RegistrationParams{
			Breed:       input.Breed,
			Species:     input.Species,
			Gender:      input.Gender,
			Location:    input.Location,
			Description: input.Description,
			Status:      input.Status,
			Tags:        input.Tags,
		}); err != nil {
			return err
		}

		record := models.AnimalRecord{
			Fingerprint:  fingerprint.Compute(input.Breed, input.Species, input.Gender, input.BirthDate, input.Location),
			Owner:        caller,
			RegisteredAt: requestcontext.Now(ctx),
			Breed:        input.Breed,
			Species:      input.Species,
			Gender:       input.Gender,
			BirthDate:    input.BirthDate,
			Location:     input.Location,
			Description:  input.Description,
			Status:       input.Status,
			Tags:         input.Tags,
		}
		id, err := s.animals.Create(ctx, record)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateFingerprint) {
				return dErrors.New(dErrors.CodeAlreadyRegistered, "an animal with this identity is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create animal record")
		}
		record.ID = id
		created = record
		return nil
	})
	if err != nil {
		return models.AnimalRecord{}, s.reject(err)
	}
	s.metrics.RecordRegistration()
	return created, nil
}

// UpdateLocation sets a new location and appends its audit entry. Allowed for
// the record's owner and the admin.
func (s *Service) UpdateLocation(ctx context.Context, id models.AnimalID, newLocation string) (models.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "registry.update_location")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOp("update_location", time.Since(start).Seconds()) }()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return models.AuditEntry{}, s.reject(err)
	}

	var entry models.AuditEntry
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.RequireNotPaused(ctx); err != nil {
			return err
		}
		if err := guard.ValidateLocation(newLocation); err != nil {
			return err
		}
		record, err := s.guard.RequireOwnerOrAdmin(ctx, id, caller)
		if err != nil {
			return err
		}
		entry, err = s.commitMutation(ctx, id, caller, models.FieldLocation, record.Location, newLocation,
			func(r *models.AnimalRecord) { r.Location = newLocation })
		return err
	})
	if err != nil {
		return models.AuditEntry{}, s.reject(err)
	}
	s.afterCommit(ctx, id, entry)
	s.metrics.RecordMutation(models.FieldLocation)
	return entry, nil
}

// UpdateStatus sets a new status validated against the update whitelist.
// Allowed for the record's owner and the admin. There is no transition graph:
// any whitelisted status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id models.AnimalID, newStatus models.Status) (models.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "registry.update_status")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOp("update_status", time.Since(start).Seconds()) }()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return models.AuditEntry{}, s.reject(err)
	}

	var entry models.AuditEntry
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.RequireNotPaused(ctx); err != nil {
			return err
		}
		if err := guard.ValidateUpdateStatus(newStatus); err != nil {
			return err
		}
		record, err := s.guard.RequireOwnerOrAdmin(ctx, id, caller)
		if err != nil {
			return err
		}
		entry, err = s.commitMutation(ctx, id, caller, models.FieldStatus, string(record.Status), string(newStatus),
			func(r *models.AnimalRecord) { r.Status = newStatus })
		return err
	})
	if err != nil {
		return models.AuditEntry{}, s.reject(err)
	}
	s.afterCommit(ctx, id, entry)
	s.metrics.RecordMutation(models.FieldStatus)
	return entry, nil
}

// TransferOwnership reassigns the record to newOwner. Only the current owner
// may transfer; the admin cannot act on an owner's behalf here.
func (s *Service) TransferOwnership(ctx context.Context, id models.AnimalID, newOwner models.Account) (models.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "registry.transfer_ownership")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOp("transfer_ownership", time.Since(start).Seconds()) }()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return models.AuditEntry{}, s.reject(err)
	}
	if newOwner == "" {
		// Ownership is single-valued at all times; a transfer may never leave
		// a record with no owner.
		return models.AuditEntry{}, s.reject(dErrors.New(dErrors.CodeInvalidParam, "new owner must not be empty"))
	}

	var entry models.AuditEntry
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.RequireNotPaused(ctx); err != nil {
			return err
		}
		record, err := s.guard.RequireOwner(ctx, id, caller)
		if err != nil {
			return err
		}
		entry, err = s.commitMutation(ctx, id, caller, models.FieldOwner, string(record.Owner), string(newOwner),
			func(r *models.AnimalRecord) { r.Owner = newOwner })
		return err
	})
	if err != nil {
		return models.AuditEntry{}, s.reject(err)
	}
	s.afterCommit(ctx, id, entry)
	s.metrics.RecordMutation(models.FieldOwner)
	return entry, nil
}

// commitMutation applies exactly one field change and appends its audit
// entry. Callers invoke it only after every guard check has passed, inside
// the transactional unit.
func (s *Service) commitMutation(
	ctx context.Context,
	id models.AnimalID,
	caller models.Account,
	field, oldValue, newValue string,
	apply func(*models.AnimalRecord),
) (models.AuditEntry, error) {
	if err := s.animals.Mutate(ctx, id, apply); err != nil {
		return models.AuditEntry{}, dErrors.Wrap(err, dErrors.CodeInternal, "apply mutation")
	}
	entry, err := s.trail.Append(ctx, models.AuditEntry{
		AnimalID:  id,
		Updater:   caller,
		Timestamp: requestcontext.Now(ctx),
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
	if err != nil {
		return models.AuditEntry{}, dErrors.Wrap(err, dErrors.CodeInternal, "append audit entry")
	}
	return entry, nil
}

// afterCommit runs the side effects a mutation must not trigger until its
// transaction is down: the cache invalidation that closes the stale-refill
// window, and the Kafka fan-out copy. Neither may fire for a rolled-back
// mutation, so neither lives inside commitMutation.
func (s *Service) afterCommit(ctx context.Context, id models.AnimalID, entry models.AuditEntry) {
	if inv, ok := s.animals.(store.Invalidator); ok {
		inv.Invalidate(ctx, id)
	}
	s.trail.Notify(entry)
}

// Pause sets the global pause gate. Admin only; works while paused.
func (s *Service) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true, "registry.pause")
}

// Unpause clears the global pause gate. Admin only.
func (s *Service) Unpause(ctx context.Context) error {
	return s.setPaused(ctx, false, "registry.unpause")
}

func (s *Service) setPaused(ctx context.Context, paused bool, span string) error {
	ctx, sp := s.tracer.Start(ctx, span)
	defer sp.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return s.reject(err)
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.RequireAdmin(ctx, caller); err != nil {
			return err
		}
		if err := s.state.SetPaused(ctx, paused); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "set pause gate")
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}
	return nil
}

// SetAdmin replaces the admin account. Admin only; works while paused.
func (s *Service) SetAdmin(ctx context.Context, newAdmin models.Account) error {
	ctx, span := s.tracer.Start(ctx, "registry.set_admin")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return s.reject(err)
	}
	if newAdmin == "" {
		return s.reject(dErrors.New(dErrors.CodeInvalidParam, "new admin must not be empty"))
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.RequireAdmin(ctx, caller); err != nil {
			return err
		}
		if err := s.state.SetAdmin(ctx, newAdmin); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "set admin")
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}
	return nil
}

// GetDetails returns the record for id.
func (s *Service) GetDetails(ctx context.Context, id models.AnimalID) (models.AnimalRecord, error) {
	if id == 0 {
		return models.AnimalRecord{}, dErrors.New(dErrors.CodeInvalidID, "animal id must be positive")
	}
	record, err := s.animals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.AnimalRecord{}, dErrors.New(dErrors.CodeNotFound, "animal is not registered")
		}
		return models.AnimalRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "load animal")
	}
	return record, nil
}

// GetByFingerprint resolves a record through the fingerprint index.
func (s *Service) GetByFingerprint(ctx context.Context, fp models.Fingerprint) (models.AnimalRecord, error) {
	record, err := s.animals.GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.AnimalRecord{}, dErrors.New(dErrors.CodeNotFound, "fingerprint is not registered")
		}
		return models.AnimalRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "load animal by fingerprint")
	}
	return record, nil
}

// VerifyOwnership is a pure predicate: true only when the record exists and
// owner matches. Absent records verify as false, not as an error.
func (s *Service) VerifyOwnership(ctx context.Context, id models.AnimalID, owner models.Account) (bool, error) {
	record, err := s.animals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "load animal")
	}
	return record.Owner == owner, nil
}

// GetHistoryEntry returns the audit entry at (id, seq).
func (s *Service) GetHistoryEntry(ctx context.Context, id models.AnimalID, seq uint64) (models.AuditEntry, error) {
	entry, err := s.trail.Entry(ctx, id, seq)
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			return models.AuditEntry{}, dErrors.New(dErrors.CodeNotFound, "no audit entry at this sequence")
		}
		return models.AuditEntry{}, dErrors.Wrap(err, dErrors.CodeInternal, "load audit entry")
	}
	return entry, nil
}

// GetUpdateCount returns the number of committed mutations for id, zero for
// unknown or never-mutated records.
func (s *Service) GetUpdateCount(ctx context.Context, id models.AnimalID) (uint64, error) {
	count, err := s.trail.Count(ctx, id)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "load audit count")
	}
	return count, nil
}

// IsPaused reports the pause gate.
func (s *Service) IsPaused(ctx context.Context) (bool, error) {
	state, err := s.state.State(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "load registry state")
	}
	return state.Paused, nil
}

// GetAdmin returns the current admin account.
func (s *Service) GetAdmin(ctx context.Context) (models.Account, error) {
	state, err := s.state.State(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "load registry state")
	}
	return state.Admin, nil
}

// GetLastID returns the highest assigned record id.
func (s *Service) GetLastID(ctx context.Context) (uint64, error) {
	state, err := s.state.State(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "load registry state")
	}
	return state.LastAssignedID, nil
}

func (s *Service) requireCaller(ctx context.Context) (models.Account, error) {
	caller := models.Account(requestcontext.Caller(ctx))
	if caller == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "no caller identity in context")
	}
	return caller, nil
}

// reject records the rejection metric and passes the error through verbatim;
// the caller is solely responsible for resubmitting a corrected call.
func (s *Service) reject(err error) error {
	s.metrics.RecordRejection(string(dErrors.CodeOf(err)))
	return err
}
