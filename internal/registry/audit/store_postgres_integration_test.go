//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"herdbook/internal/registry/audit"
	"herdbook/internal/registry/models"
	"herdbook/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *audit.PostgresStore
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())

	pgStore, err := audit.NewPostgresStore(context.Background(), s.pg.DB)
	s.Require().NoError(err)
	s.store = pgStore
}

func (s *PostgresAuditSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE audit_entries, audit_counters`)
	s.Require().NoError(err)
}

func TestPostgresAuditSuite(t *testing.T) {
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) entry(id models.AnimalID, newValue string) models.AuditEntry {
	return models.AuditEntry{
		AnimalID:  id,
		Updater:   "farmer1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Field:     models.FieldLocation,
		OldValue:  "Farm A",
		NewValue:  newValue,
	}
}

func (s *PostgresAuditSuite) TestAppendAssignsContiguousSeq() {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		stored, err := s.store.Append(ctx, s.entry(1, "Farm B"))
		s.Require().NoError(err)
		s.Equal(uint64(i), stored.Seq)
	}

	// A second record keeps its own counter.
	stored, err := s.store.Append(ctx, s.entry(2, "Farm C"))
	s.Require().NoError(err)
	s.Equal(uint64(1), stored.Seq)

	count, err := s.store.Count(ctx, 1)
	s.Require().NoError(err)
	s.Equal(uint64(3), count)
}

func (s *PostgresAuditSuite) TestEntryRoundTrip() {
	ctx := context.Background()

	stored, err := s.store.Append(ctx, s.entry(1, "Farm B"))
	s.Require().NoError(err)

	got, err := s.store.Entry(ctx, 1, stored.Seq)
	s.Require().NoError(err)
	s.Equal(models.AnimalID(1), got.AnimalID)
	s.Equal(models.Account("farmer1"), got.Updater)
	s.Equal("Farm A", got.OldValue)
	s.Equal("Farm B", got.NewValue)
	s.True(stored.Timestamp.Equal(got.Timestamp))

	_, err = s.store.Entry(ctx, 1, stored.Seq+1)
	s.Require().ErrorIs(err, audit.ErrNotFound)
}

func (s *PostgresAuditSuite) TestCountDefaultsToZero() {
	count, err := s.store.Count(context.Background(), 99)
	s.Require().NoError(err)
	s.Zero(count)
}
