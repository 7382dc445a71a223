//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"herdbook/internal/registry/models"
	"herdbook/internal/registry/store"
	txcontext "herdbook/pkg/platform/tx"
	"herdbook/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *store.InMemoryStore
	cached  *store.CachedAnimalStore
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = store.NewInMemoryStore("admin")
	s.cached = store.NewCachedAnimalStore(s.backing, s.redis.Client, time.Minute)
}

func TestCachedStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	id, err := s.cached.Create(ctx, testRecord("Farm A"))
	s.Require().NoError(err)

	// First read populates the cache from the backing store.
	got, err := s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("Farm A", got.Location)

	// Second read is served from Redis: mutate the backing store directly
	// and confirm the cached copy is returned.
	s.Require().NoError(s.backing.Mutate(ctx, id, func(r *models.AnimalRecord) {
		r.Location = "Farm Z"
	}))
	got, err = s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("Farm A", got.Location)
}

func (s *CachedStoreSuite) TestMutateInvalidates() {
	ctx := context.Background()
	id, err := s.cached.Create(ctx, testRecord("Farm A"))
	s.Require().NoError(err)

	_, err = s.cached.Get(ctx, id)
	s.Require().NoError(err)

	s.Require().NoError(s.cached.Mutate(ctx, id, func(r *models.AnimalRecord) {
		r.Location = "Farm B"
	}))

	got, err := s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("Farm B", got.Location)
}

func (s *CachedStoreSuite) TestInvalidateDropsRefilledEntry() {
	ctx := context.Background()
	id, err := s.cached.Create(ctx, testRecord("Farm A"))
	s.Require().NoError(err)

	// Simulate the stale-refill interleaving: the cache holds the
	// pre-mutation row after the backing store has moved on.
	_, err = s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NoError(s.backing.Mutate(ctx, id, func(r *models.AnimalRecord) {
		r.Location = "Farm B"
	}))

	got, err := s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("Farm A", got.Location, "cache still serves the refilled pre-mutation row")

	// The post-commit invalidation closes the window.
	s.cached.Invalidate(ctx, id)

	got, err = s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("Farm B", got.Location)
}

func (s *CachedStoreSuite) TestTransactionReadsBypassCache() {
	ctx := context.Background()
	id, err := s.cached.Create(ctx, testRecord("Farm A"))
	s.Require().NoError(err)

	// Poison the cache with the pre-mutation row, then move the backing
	// store on.
	_, err = s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NoError(s.backing.Mutate(ctx, id, func(r *models.AnimalRecord) {
		r.Owner = "farmer2"
	}))

	pg := containers.NewPostgresContainer(s.T())
	tx, err := pg.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	defer tx.Rollback()

	// A guard read inside an open transaction must see the backing store,
	// not the cached copy.
	got, err := s.cached.Get(txcontext.WithTx(ctx, tx), id)
	s.Require().NoError(err)
	s.Equal(models.Account("farmer2"), got.Owner)

	// Outside the transaction the poisoned entry is still served.
	got, err = s.cached.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.Account("farmer1"), got.Owner)
}

func (s *CachedStoreSuite) TestMissesPassThrough() {
	ctx := context.Background()

	_, err := s.cached.Get(ctx, 42)
	s.Require().ErrorIs(err, store.ErrNotFound)

	id, err := s.cached.Create(ctx, testRecord("Farm A"))
	s.Require().NoError(err)

	// Fingerprint lookups bypass the cache entirely.
	got, err := s.cached.GetByFingerprint(ctx, testRecord("Farm A").Fingerprint)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
}
