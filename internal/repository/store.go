package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance-service/pkg/xerrors"
)

// UnitOfWork exposes the repositories bound to one atomic scope. Inside
// Store.WithinTx every repository call runs on the same database transaction;
// outside, calls auto-commit individually.
type UnitOfWork interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Receivables() ReceivableRepository
	Sequences() SequenceRepository
}

// Store is the persistence boundary. WithinTx runs fn inside a single
// serializable transaction: everything commits together or nothing does, and
// a conflicting concurrent writer aborts the unit with ErrTxConflict rather
// than retrying internally. Retry policy belongs to the caller.
type Store interface {
	UnitOfWork
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so repositories run unchanged inside and outside a unit of work.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgUnitOfWork struct {
	q Querier
}

func (u pgUnitOfWork) Accounts() AccountRepository         { return &accountRepo{q: u.q} }
func (u pgUnitOfWork) Transactions() TransactionRepository { return &transactionRepo{q: u.q} }
func (u pgUnitOfWork) Receivables() ReceivableRepository   { return &receivableRepo{q: u.q} }
func (u pgUnitOfWork) Sequences() SequenceRepository       { return &sequenceRepo{q: u.q} }

type pgStore struct {
	pgUnitOfWork
	db *pgxpool.Pool
}

// NewStore creates the postgres-backed Store.
func NewStore(db *pgxpool.Pool) Store {
	return &pgStore{pgUnitOfWork: pgUnitOfWork{q: db}, db: db}
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, pgUnitOfWork{q: tx}); err != nil {
		if xerrors.IsSerializationFailure(err) {
			return xerrors.ErrTxConflict
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if xerrors.IsSerializationFailure(err) {
			return xerrors.ErrTxConflict
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func mapNoRows(err error, wrap string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", wrap, err)
}
