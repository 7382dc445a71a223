// Package guard gates every mutating registry call. All authorization and
// parameter validation lives here so invalid or unauthorized input never
// reaches the stores.
package guard

import (
	"context"
	"errors"
	"fmt"

	"herdbook/internal/registry/models"
	"herdbook/internal/registry/store"
	dErrors "herdbook/pkg/domain-errors"
)

// Field bounds enforced at registration and update time.
const (
	MaxNameLen        = 100
	MaxLocationLen    = 100
	MaxDescriptionLen = 500
	MaxTagLen         = 50
	MaxTags           = 10
)

// Guard evaluates stateless predicates over the stores and the registry
// scalar state. It never mutates anything.
type Guard struct {
	animals store.AnimalStore
	state   store.StateStore
}

func New(animals store.AnimalStore, state store.StateStore) *Guard {
	return &Guard{animals: animals, state: state}
}

// RequireNotPaused fails while the global pause gate is set. Administrative
// operations (pause, unpause, set admin) do not call this.
func (g *Guard) RequireNotPaused(ctx context.Context) error {
	state, err := g.state.State(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load registry state")
	}
	if state.Paused {
		return dErrors.New(dErrors.CodePaused, "registry is paused")
	}
	return nil
}

// RequireAdmin fails unless caller is the current admin.
func (g *Guard) RequireAdmin(ctx context.Context, caller models.Account) error {
	state, err := g.state.State(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load registry state")
	}
	if caller == "" || caller != state.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the admin")
	}
	return nil
}

// RequireOwnerOrAdmin loads the record and fails unless caller is its owner
// or the admin. The loaded record is returned so the facade can capture the
// old field value without a second lookup.
func (g *Guard) RequireOwnerOrAdmin(ctx context.Context, id models.AnimalID, caller models.Account) (models.AnimalRecord, error) {
	record, err := g.loadRecord(ctx, id)
	if err != nil {
		return models.AnimalRecord{}, err
	}
	if caller != "" && caller == record.Owner {
		return record, nil
	}
	state, err := g.state.State(ctx)
	if err != nil {
		return models.AnimalRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "load registry state")
	}
	if caller != "" && caller == state.Admin {
		return record, nil
	}
	return models.AnimalRecord{}, dErrors.New(dErrors.CodeUnauthorized, "caller is neither owner nor admin")
}

// RequireOwner is the stricter check used only for ownership transfer: the
// admin cannot transfer on an owner's behalf.
func (g *Guard) RequireOwner(ctx context.Context, id models.AnimalID, caller models.Account) (models.AnimalRecord, error) {
	record, err := g.loadRecord(ctx, id)
	if err != nil {
		return models.AnimalRecord{}, err
	}
	if caller == "" || caller != record.Owner {
		return models.AnimalRecord{}, dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return record, nil
}

func (g *Guard) loadRecord(ctx context.Context, id models.AnimalID) (models.AnimalRecord, error) {
	if id == 0 {
		return models.AnimalRecord{}, dErrors.New(dErrors.CodeInvalidID, "animal id must be positive")
	}
	record, err := g.animals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.AnimalRecord{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("animal %d is not registered", id))
		}
		return models.AnimalRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "load animal")
	}
	return record, nil
}

// RegistrationParams is the validated subset of a register call.
type RegistrationParams struct {
	Breed       string
	Species     string
	Gender      string
	Location    string
	Description string
	Status      models.Status
	Tags        []string
}

// ValidateRegistration checks bounds and the registration status whitelist.
func (g *Guard) ValidateRegistration(params RegistrationParams) error {
	if err := requireBoundedNonEmpty("breed", params.Breed, MaxNameLen); err != nil {
		return err
	}
	if err := requireBoundedNonEmpty("species", params.Species, MaxNameLen); err != nil {
		return err
	}
	if err := requireBounded("gender", params.Gender, MaxNameLen); err != nil {
		return err
	}
	if err := ValidateLocation(params.Location); err != nil {
		return err
	}
	if err := requireBounded("description", params.Description, MaxDescriptionLen); err != nil {
		return err
	}
	if len(params.Tags) > MaxTags {
		return dErrors.New(dErrors.CodeMaxTagsExceeded, "at most 10 tags allowed")
	}
	for _, tag := range params.Tags {
		if err := requireBounded("tag", tag, MaxTagLen); err != nil {
			return err
		}
	}
	if !models.RegistrationStatuses[params.Status] {
		return dErrors.New(dErrors.CodeInvalidStatus, "registration status must be active or pending")
	}
	return nil
}

// ValidateLocation checks the location bound shared by register and
// updateLocation. Empty locations are allowed; only breed and species are
// required to be non-empty.
func ValidateLocation(location string) error {
	return requireBounded("location", location, MaxLocationLen)
}

// ValidateUpdateStatus checks the update status whitelist. It shares only
// "active" with the registration whitelist.
func ValidateUpdateStatus(status models.Status) error {
	if !models.UpdateStatuses[status] {
		return dErrors.New(dErrors.CodeInvalidStatus, "status must be active, sold, deceased, or quarantined")
	}
	return nil
}

func requireBoundedNonEmpty(name, value string, max int) error {
	if value == "" {
		return dErrors.New(dErrors.CodeInvalidParam, name+" must not be empty")
	}
	return requireBounded(name, value, max)
}

func requireBounded(name, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeInvalidParam, fmt.Sprintf("%s exceeds %d characters", name, max))
	}
	return nil
}
