package store

import (
	"context"
	"sync"

	"herdbook/internal/registry/models"
)

// InMemoryStore keeps the reference implementation lightweight and testable.
// It intentionally favors clarity over performance. One instance holds the
// record table, the fingerprint index, and the registry scalars so that id
// assignment and fingerprint indexing stay atomic under a single lock.
type InMemoryStore struct {
	mu           sync.RWMutex
	animals      map[models.AnimalID]models.AnimalRecord
	fingerprints map[models.Fingerprint]models.AnimalID
	state        models.RegistryState
}

// NewInMemoryStore initializes the store at deployment state: no records,
// unpaused, with the deployer account as admin.
func NewInMemoryStore(admin models.Account) *InMemoryStore {
	return &InMemoryStore{
		animals:      make(map[models.AnimalID]models.AnimalRecord),
		fingerprints: make(map[models.Fingerprint]models.AnimalID),
		state:        models.RegistryState{Admin: admin},
	}
}

func (s *InMemoryStore) Create(_ context.Context, record models.AnimalRecord) (models.AnimalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Lookup before any mutation so a duplicate leaves no trace.
	if _, exists := s.fingerprints[record.Fingerprint]; exists {
		return 0, ErrDuplicateFingerprint
	}
	s.state.LastAssignedID++
	record.ID = models.AnimalID(s.state.LastAssignedID)
	s.animals[record.ID] = record
	s.fingerprints[record.Fingerprint] = record.ID
	return record.ID, nil
}

func (s *InMemoryStore) Get(_ context.Context, id models.AnimalID) (models.AnimalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.animals[id]; ok {
		return record, nil
	}
	return models.AnimalRecord{}, ErrNotFound
}

func (s *InMemoryStore) GetByFingerprint(_ context.Context, fp models.Fingerprint) (models.AnimalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.fingerprints[fp]
	if !ok {
		return models.AnimalRecord{}, ErrNotFound
	}
	record, ok := s.animals[id]
	if !ok {
		return models.AnimalRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Mutate(_ context.Context, id models.AnimalID, fn func(*models.AnimalRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.animals[id]
	if !ok {
		return ErrNotFound
	}
	fn(&record)
	s.animals[id] = record
	return nil
}

func (s *InMemoryStore) State(_ context.Context) (models.RegistryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *InMemoryStore) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Paused = paused
	return nil
}

func (s *InMemoryStore) SetAdmin(_ context.Context, admin models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Admin = admin
	return nil
}
