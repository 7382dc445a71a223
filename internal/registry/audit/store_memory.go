package audit

import (
	"context"
	"sync"

	"herdbook/internal/registry/models"
)

type entryKey struct {
	id  models.AnimalID
	seq uint64
}

// InMemoryStore is the reference audit store. Counter advance and entry
// insert happen under one lock, so the contiguity invariant holds by
// construction.
type InMemoryStore struct {
	mu       sync.RWMutex
	entries  map[entryKey]models.AuditEntry
	counters map[models.AnimalID]uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries:  make(map[entryKey]models.AuditEntry),
		counters: make(map[models.AnimalID]uint64),
	}
}

func (s *InMemoryStore) Append(_ context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.counters[entry.AnimalID] + 1
	entry.Seq = next
	s.entries[entryKey{id: entry.AnimalID, seq: next}] = entry
	s.counters[entry.AnimalID] = next
	return entry, nil
}

func (s *InMemoryStore) Entry(_ context.Context, id models.AnimalID, seq uint64) (models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[entryKey{id: id, seq: seq}]; ok {
		return entry, nil
	}
	return models.AuditEntry{}, ErrNotFound
}

func (s *InMemoryStore) Count(_ context.Context, id models.AnimalID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[id], nil
}
