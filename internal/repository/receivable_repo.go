package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"finance-service/internal/domain"
)

// ReceivableRepository persists the invoice-like documents. Receivables are
// never deleted; terminal states are reached only through the usecase flows.
type ReceivableRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Receivable, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Receivable, error)
	GetByReceiptNumber(ctx context.Context, receiptNumber string) (*domain.Receivable, error)
	// GetByReceiptNumberForUpdate row-locks the receivable so two concurrent
	// reconciliations of the same payment serialize on it.
	GetByReceiptNumberForUpdate(ctx context.Context, receiptNumber string) (*domain.Receivable, error)
	Create(ctx context.Context, r *domain.Receivable) error
	Update(ctx context.Context, r *domain.Receivable) error
	ListByStatus(ctx context.Context, status domain.ReceivableStatus, limit, offset int) ([]*domain.Receivable, error)
}

type receivableRepo struct {
	q Querier
}

// The fixed/installment union maps to a kind discriminant plus a nullable
// column set per variant; the installment payment lines live in a jsonb
// column since they are only ever read and written with their parent.
const baseReceivableSelect = `
	SELECT id, class, receipt_number, payer_id, payer_name, description,
	       status, reject_reason, kind, amount, paid_amount,
	       payment_type, payment_date, account_id, transaction_id,
	       payments, created_at, updated_at
	FROM receivables`

func scanReceivable(row pgx.Row) (*domain.Receivable, error) {
	var (
		r           domain.Receivable
		kind        string
		amount      decimal.Decimal
		paidAmount  *decimal.Decimal
		paymentType *domain.PaymentType
		fixed       domain.FixedTerms
		payments    []domain.InstallmentPayment
	)

	err := row.Scan(
		&r.ID, &r.Class, &r.ReceiptNumber, &r.PayerID, &r.PayerName, &r.Description,
		&r.Status, &r.RejectReason, &kind, &amount, &paidAmount,
		&paymentType, &fixed.PaymentDate, &fixed.AccountID, &fixed.TransactionID,
		&payments, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err, "failed to scan receivable")
	}

	switch kind {
	case "fixed":
		fixed.Amount = amount
		fixed.PaymentType = paymentType
		r.Fixed = &fixed
	case "installment":
		terms := &domain.InstallmentTerms{
			TotalAmount: amount,
			PaidAmount:  decimal.Zero,
			Payments:    payments,
		}
		if paidAmount != nil {
			terms.PaidAmount = *paidAmount
		}
		r.Installment = terms
	default:
		return nil, fmt.Errorf("unknown receivable kind %q", kind)
	}
	return &r, nil
}

func (r *receivableRepo) GetByID(ctx context.Context, id string) (*domain.Receivable, error) {
	return scanReceivable(r.q.QueryRow(ctx, baseReceivableSelect+` WHERE id = $1`, id))
}

func (r *receivableRepo) GetForUpdate(ctx context.Context, id string) (*domain.Receivable, error) {
	return scanReceivable(r.q.QueryRow(ctx, baseReceivableSelect+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *receivableRepo) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*domain.Receivable, error) {
	return scanReceivable(r.q.QueryRow(ctx, baseReceivableSelect+` WHERE receipt_number = $1`, receiptNumber))
}

func (r *receivableRepo) GetByReceiptNumberForUpdate(ctx context.Context, receiptNumber string) (*domain.Receivable, error) {
	return scanReceivable(r.q.QueryRow(ctx, baseReceivableSelect+` WHERE receipt_number = $1 FOR UPDATE`, receiptNumber))
}

func receivableColumns(rec *domain.Receivable) (kind string, amount decimal.Decimal, paidAmount *decimal.Decimal, paymentType *domain.PaymentType, fixed domain.FixedTerms, payments []domain.InstallmentPayment) {
	if rec.Fixed != nil {
		return "fixed", rec.Fixed.Amount, nil, rec.Fixed.PaymentType, *rec.Fixed, nil
	}
	paid := rec.Installment.PaidAmount
	return "installment", rec.Installment.TotalAmount, &paid, nil, domain.FixedTerms{}, rec.Installment.Payments
}

func (r *receivableRepo) Create(ctx context.Context, rec *domain.Receivable) error {
	kind, amount, paidAmount, paymentType, fixed, payments := receivableColumns(rec)

	const query = `
		INSERT INTO receivables (id, class, receipt_number, payer_id, payer_name,
		                         description, status, reject_reason, kind, amount,
		                         paid_amount, payment_type, payment_date, account_id,
		                         transaction_id, payments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.Class, rec.ReceiptNumber, rec.PayerID, rec.PayerName,
		rec.Description, rec.Status, rec.RejectReason, kind, amount,
		paidAmount, paymentType, fixed.PaymentDate, fixed.AccountID,
		fixed.TransactionID, payments, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create receivable: %w", err)
	}
	return nil
}

func (r *receivableRepo) Update(ctx context.Context, rec *domain.Receivable) error {
	kind, amount, paidAmount, paymentType, fixed, payments := receivableColumns(rec)

	const query = `
		UPDATE receivables
		SET status = $2, reject_reason = $3, amount = $4, paid_amount = $5,
		    payment_type = $6, payment_date = $7, account_id = $8,
		    transaction_id = $9, payments = $10, updated_at = $11
		WHERE id = $1 AND kind = $12`

	tag, err := r.q.Exec(ctx, query,
		rec.ID, rec.Status, rec.RejectReason, amount, paidAmount,
		paymentType, fixed.PaymentDate, fixed.AccountID,
		fixed.TransactionID, payments, rec.UpdatedAt, kind,
	)
	if err != nil {
		return fmt.Errorf("failed to update receivable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mapNoRows(pgx.ErrNoRows, "receivable missing on update")
	}
	return nil
}

func (r *receivableRepo) ListByStatus(ctx context.Context, status domain.ReceivableStatus, limit, offset int) ([]*domain.Receivable, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = baseReceivableSelect + `
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list receivables: %w", err)
	}
	defer rows.Close()

	var recs []*domain.Receivable
	for rows.Next() {
		rec, err := scanReceivable(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
