package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "herdbook/pkg/domain-errors"
	txcontext "herdbook/pkg/platform/tx"
)

// TxRunner provides the all-or-nothing boundary around every mutating facade
// operation. Implementations serialize mutations into a single total order;
// reads do not go through the runner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout bounds how long one mutating operation may hold its turn.
const defaultTxTimeout = 5 * time.Second

// serialTx is the in-memory runner: one mutex, one mutation at a time. The
// serialization itself is the concurrency control, matching the sequential
// ledger model; validation failures abort before any store write happens.
type serialTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewSerialTx builds the runner used with the in-memory stores.
func NewSerialTx() TxRunner {
	return &serialTx{timeout: defaultTxTimeout}
}

func (t *serialTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "operation aborted before start")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// sqlTx is the Postgres runner: the store mutation, audit append, and counter
// advance all execute against one SQL transaction stashed in context, so a
// failure at any step rolls the whole operation back.
type sqlTx struct {
	db *sql.DB
}

// NewSQLTx builds the runner used with the Postgres stores.
func NewSQLTx(db *sql.DB) TxRunner {
	return &sqlTx{db: db}
}

func (t *sqlTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	dbTx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	if err := fn(txcontext.WithTx(ctx, dbTx)); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}
