package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"finance-service/internal/domain"
)

// AccountRepository defines the interface for account persistence operations.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetForUpdate row-locks the account for the rest of the unit of work.
	GetForUpdate(ctx context.Context, id string) (*domain.Account, error)
	GetPrimary(ctx context.Context) (*domain.Account, error)
	List(ctx context.Context, f *domain.AccountFilter) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	SetPrimary(ctx context.Context, id string) error
}

type accountRepo struct {
	q Querier
}

const baseAccountSelect = `
	SELECT id, name, account_number, type, is_primary, balance, created_at, updated_at
	FROM accounts`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.AccountNumber, &a.Type, &a.IsPrimary,
		&a.Balance, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err, "failed to scan account")
	}
	return &a, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, baseAccountSelect+` WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *accountRepo) GetForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, baseAccountSelect+` WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (r *accountRepo) GetPrimary(ctx context.Context) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, baseAccountSelect+` WHERE is_primary = true`)
	return scanAccount(row)
}

func (r *accountRepo) List(ctx context.Context, f *domain.AccountFilter) ([]*domain.Account, error) {
	query := baseAccountSelect + ` WHERE 1=1`
	args := []any{}
	i := 1

	if f != nil && f.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", i)
		args = append(args, *f.Type)
		i++
	}
	if f != nil && f.IsPrimary != nil {
		query += fmt.Sprintf(" AND is_primary = $%d", i)
		args = append(args, *f.IsPrimary)
		i++
	}
	query += " ORDER BY created_at"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	const query = `
		INSERT INTO accounts (id, name, account_number, type, is_primary, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.Exec(ctx, query,
		a.ID, a.Name, a.AccountNumber, a.Type, a.IsPrimary, a.Balance, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id, balance, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mapNoRows(pgx.ErrNoRows, "account missing on balance update")
	}
	return nil
}

// SetPrimary flips the primary flag to the given account, clearing it on any
// other account first so the at-most-one invariant holds.
func (r *accountRepo) SetPrimary(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `UPDATE accounts SET is_primary = false WHERE is_primary = true AND id <> $1`, id); err != nil {
		return fmt.Errorf("failed to clear primary flag: %w", err)
	}

	tag, err := r.q.Exec(ctx, `UPDATE accounts SET is_primary = true, updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set primary flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mapNoRows(pgx.ErrNoRows, "account missing on set primary")
	}
	return nil
}
