package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"finance-service/internal/domain"
)

// TransactionRepository persists ledger postings. Postings are append-only:
// Update and Delete exist solely for the ledger engine's paired
// reverse-and-reapply operations, never for ad hoc edits.
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Create(ctx context.Context, t *domain.Transaction) error
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, id string) error
	// ListByAccount returns postings in creation order.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

type transactionRepo struct {
	q Querier
}

const baseTransactionSelect = `
	SELECT id, account_id, entry, amount, opening_balance, closing_balance,
	       category, description, created_at
	FROM transactions`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Entry, &t.Amount, &t.OpeningBalance,
		&t.ClosingBalance, &t.Category, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err, "failed to scan transaction")
	}
	return &t, nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.q.QueryRow(ctx, baseTransactionSelect+` WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	const query = `
		INSERT INTO transactions (id, account_id, entry, amount, opening_balance,
		                          closing_balance, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.q.Exec(ctx, query,
		t.ID, t.AccountID, t.Entry, t.Amount, t.OpeningBalance,
		t.ClosingBalance, t.Category, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	const query = `
		UPDATE transactions
		SET amount = $2, opening_balance = $3, closing_balance = $4,
		    category = $5, description = $6
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Amount, t.OpeningBalance, t.ClosingBalance, t.Category, t.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mapNoRows(pgx.ErrNoRows, "transaction missing on update")
	}
	return nil
}

func (r *transactionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mapNoRows(pgx.ErrNoRows, "transaction missing on delete")
	}
	return nil
}

func (r *transactionRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	const query = baseTransactionSelect + `
		WHERE account_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
