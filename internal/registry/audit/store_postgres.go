package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"herdbook/internal/registry/models"
	txcontext "herdbook/pkg/platform/tx"
)

// PostgresStore persists the trail in PostgreSQL. Appends run against the SQL
// transaction carried in context, so an entry only becomes visible when the
// record mutation that produced it commits.
type PostgresStore struct {
	db *sql.DB
}

const auditDDL = `
CREATE TABLE IF NOT EXISTS audit_counters (
	animal_id bigint PRIMARY KEY,
	count     bigint NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS audit_entries (
	animal_id bigint NOT NULL,
	seq       bigint NOT NULL,
	updater   text NOT NULL,
	ts        timestamptz NOT NULL,
	field     text NOT NULL,
	old_value text NOT NULL,
	new_value text NOT NULL,
	PRIMARY KEY (animal_id, seq)
);
`

func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, auditDDL); err != nil {
		return nil, fmt.Errorf("apply audit schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	exec := s.execer(ctx)

	var next uint64
	err := exec.QueryRowContext(ctx, `
		INSERT INTO audit_counters (animal_id, count)
		VALUES ($1, 1)
		ON CONFLICT (animal_id) DO UPDATE SET count = audit_counters.count + 1
		RETURNING count
	`, uint64(entry.AnimalID)).Scan(&next)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("advance audit counter: %w", err)
	}
	entry.Seq = next

	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_entries (animal_id, seq, updater, ts, field, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uint64(entry.AnimalID), entry.Seq, string(entry.Updater), entry.Timestamp,
		entry.Field, entry.OldValue, entry.NewValue,
	)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Entry(ctx context.Context, id models.AnimalID, seq uint64) (models.AuditEntry, error) {
	var (
		entry   models.AuditEntry
		rawID   uint64
		updater string
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT animal_id, seq, updater, ts, field, old_value, new_value
		FROM audit_entries
		WHERE animal_id = $1 AND seq = $2
	`, uint64(id), seq).Scan(
		&rawID, &entry.Seq, &updater, &entry.Timestamp,
		&entry.Field, &entry.OldValue, &entry.NewValue,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AuditEntry{}, ErrNotFound
		}
		return models.AuditEntry{}, fmt.Errorf("load audit entry: %w", err)
	}
	entry.AnimalID = models.AnimalID(rawID)
	entry.Updater = models.Account(updater)
	return entry, nil
}

func (s *PostgresStore) Count(ctx context.Context, id models.AnimalID) (uint64, error) {
	var count uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT count FROM audit_counters WHERE animal_id = $1`, uint64(id),
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load audit counter: %w", err)
	}
	return count, nil
}
