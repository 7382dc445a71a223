package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"herdbook/internal/registry/models"
	txcontext "herdbook/pkg/platform/tx"
)

// PostgresStore persists the record table, fingerprint index, and registry
// scalars in PostgreSQL. The fingerprint index is the UNIQUE constraint on
// animals.fingerprint; rows are never deleted, so duplicate rejection is
// permanent. Mutating operations are expected to run inside a SQL transaction
// carried in context so record writes and audit appends commit as one unit.
type PostgresStore struct {
	db *sql.DB
}

const pgUniqueViolation = "23505"

const animalsDDL = `
CREATE TABLE IF NOT EXISTS registry_state (
	singleton        boolean PRIMARY KEY DEFAULT true CHECK (singleton),
	last_assigned_id bigint NOT NULL DEFAULT 0,
	paused           boolean NOT NULL DEFAULT false,
	admin_account    text NOT NULL
);

CREATE TABLE IF NOT EXISTS animals (
	id            bigint PRIMARY KEY,
	fingerprint   bytea NOT NULL UNIQUE,
	owner_account text NOT NULL,
	registered_at timestamptz NOT NULL,
	breed         text NOT NULL,
	species       text NOT NULL,
	gender        text NOT NULL,
	birth_date    bigint NOT NULL,
	location      text NOT NULL,
	description   text NOT NULL,
	status        text NOT NULL,
	tags          jsonb NOT NULL DEFAULT '[]'
);
`

// NewPostgresStore applies the schema and seeds the singleton state row with
// the deployer admin if the registry has never been initialized.
func NewPostgresStore(ctx context.Context, db *sql.DB, admin models.Account) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, animalsDDL); err != nil {
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO registry_state (singleton, admin_account)
		VALUES (true, $1)
		ON CONFLICT (singleton) DO NOTHING
	`, string(admin))
	if err != nil {
		return nil, fmt.Errorf("seed registry state: %w", err)
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

func (s *PostgresStore) Create(ctx context.Context, record models.AnimalRecord) (models.AnimalID, error) {
	exec := s.execer(ctx)

	// Pure lookup first so a duplicate registration has no side effects even
	// outside a transaction; the UNIQUE constraint backstops races.
	var exists bool
	err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM animals WHERE fingerprint = $1)`,
		record.Fingerprint[:],
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check fingerprint index: %w", err)
	}
	if exists {
		return 0, ErrDuplicateFingerprint
	}

	var nextID uint64
	err = exec.QueryRowContext(ctx, `
		UPDATE registry_state
		SET last_assigned_id = last_assigned_id + 1
		RETURNING last_assigned_id
	`).Scan(&nextID)
	if err != nil {
		return 0, fmt.Errorf("advance last assigned id: %w", err)
	}

	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO animals (
			id, fingerprint, owner_account, registered_at,
			breed, species, gender, birth_date,
			location, description, status, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		nextID, record.Fingerprint[:], string(record.Owner), record.RegisteredAt,
		record.Breed, record.Species, record.Gender, record.BirthDate,
		record.Location, record.Description, string(record.Status), tags,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrDuplicateFingerprint
		}
		return 0, fmt.Errorf("insert animal: %w", err)
	}
	return models.AnimalID(nextID), nil
}

const animalColumns = `
	id, fingerprint, owner_account, registered_at,
	breed, species, gender, birth_date,
	location, description, status, tags
`

func (s *PostgresStore) Get(ctx context.Context, id models.AnimalID) (models.AnimalRecord, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE id = $1`, uint64(id))
	return scanAnimal(row)
}

func (s *PostgresStore) GetByFingerprint(ctx context.Context, fp models.Fingerprint) (models.AnimalRecord, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE fingerprint = $1`, fp[:])
	return scanAnimal(row)
}

func (s *PostgresStore) Mutate(ctx context.Context, id models.AnimalID, fn func(*models.AnimalRecord)) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&record)
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE animals
		SET owner_account = $2, location = $3, status = $4, tags = $5
		WHERE id = $1
	`, uint64(id), string(record.Owner), record.Location, string(record.Status), tags)
	if err != nil {
		return fmt.Errorf("update animal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update animal: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) State(ctx context.Context) (models.RegistryState, error) {
	var (
		state models.RegistryState
		admin string
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT last_assigned_id, paused, admin_account FROM registry_state
	`).Scan(&state.LastAssignedID, &state.Paused, &admin)
	if err != nil {
		return models.RegistryState{}, fmt.Errorf("load registry state: %w", err)
	}
	state.Admin = models.Account(admin)
	return state, nil
}

func (s *PostgresStore) SetPaused(ctx context.Context, paused bool) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registry_state SET paused = $1`, paused); err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetAdmin(ctx context.Context, admin models.Account) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registry_state SET admin_account = $1`, string(admin)); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

func scanAnimal(row *sql.Row) (models.AnimalRecord, error) {
	var (
		record      models.AnimalRecord
		id          uint64
		fingerprint []byte
		owner       string
		status      string
		tags        []byte
	)
	err := row.Scan(
		&id, &fingerprint, &owner, &record.RegisteredAt,
		&record.Breed, &record.Species, &record.Gender, &record.BirthDate,
		&record.Location, &record.Description, &status, &tags,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AnimalRecord{}, ErrNotFound
		}
		return models.AnimalRecord{}, fmt.Errorf("scan animal: %w", err)
	}
	record.ID = models.AnimalID(id)
	copy(record.Fingerprint[:], fingerprint)
	record.Owner = models.Account(owner)
	record.Status = models.Status(status)
	if err := json.Unmarshal(tags, &record.Tags); err != nil {
		return models.AnimalRecord{}, fmt.Errorf("decode tags: %w", err)
	}
	return record, nil
}
