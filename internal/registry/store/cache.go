package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"herdbook/internal/registry/models"
	txcontext "herdbook/pkg/platform/tx"
)

// CachedAnimalStore layers a Redis read-through cache over an AnimalStore.
// Detail lookups dominate the read surface (downstream health/feed/compliance
// services poll records), so only Get is cached; every successful mutation
// invalidates before writing through. Cache failures degrade to the backing
// store and are never surfaced to callers.
type CachedAnimalStore struct {
	next   AnimalStore
	client *redis.Client
	ttl    time.Duration
}

// NewCachedAnimalStore wraps next with a Redis cache.
func NewCachedAnimalStore(next AnimalStore, client *redis.Client, ttl time.Duration) *CachedAnimalStore {
	return &CachedAnimalStore{next: next, client: client, ttl: ttl}
}

func cacheKey(id models.AnimalID) string {
	return fmt.Sprintf("herdbook:animal:%d", id)
}

func (s *CachedAnimalStore) Create(ctx context.Context, record models.AnimalRecord) (models.AnimalID, error) {
	return s.next.Create(ctx, record)
}

func (s *CachedAnimalStore) Get(ctx context.Context, id models.AnimalID) (models.AnimalRecord, error) {
	// Guard reads inside an open transaction must observe the transaction
	// snapshot, never a cached copy that may lag or lead it.
	if _, ok := txcontext.From(ctx); ok {
		return s.next.Get(ctx, id)
	}
	if payload, err := s.client.Get(ctx, cacheKey(id)).Bytes(); err == nil {
		var record models.AnimalRecord
		if err := json.Unmarshal(payload, &record); err == nil {
			return record, nil
		}
	}
	record, err := s.next.Get(ctx, id)
	if err != nil {
		return models.AnimalRecord{}, err
	}
	if payload, err := json.Marshal(record); err == nil {
		// Best effort; a failed SET just means the next read hits the store.
		s.client.Set(ctx, cacheKey(id), payload, s.ttl)
	}
	return record, nil
}

func (s *CachedAnimalStore) GetByFingerprint(ctx context.Context, fp models.Fingerprint) (models.AnimalRecord, error) {
	return s.next.GetByFingerprint(ctx, fp)
}

func (s *CachedAnimalStore) Mutate(ctx context.Context, id models.AnimalID, fn func(*models.AnimalRecord)) error {
	// First half of a double delete. A concurrent Get can still refill the
	// old row before the backing write commits, so the facade deletes again
	// through Invalidate once the transaction is down.
	s.client.Del(ctx, cacheKey(id))
	return s.next.Mutate(ctx, id, fn)
}

// Invalidate drops the cached copy for id. The facade calls it after the
// transaction holding a mutation has committed, closing the window where a
// concurrent read refilled the cache from the pre-commit row.
func (s *CachedAnimalStore) Invalidate(ctx context.Context, id models.AnimalID) {
	s.client.Del(ctx, cacheKey(id))
}
