package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-service/internal/domain"
	"finance-service/pkg/xerrors"
)

func (f *fixture) seedSequences(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	seeds := map[domain.SequenceScope]string{
		domain.ScopeCollectionNumber: "KA-0000",
		domain.ScopeReceiptNumber:    "RA-0000",
		domain.ScopePaymentNumber:    "PA-0000",
	}
	for scope, initial := range seeds {
		require.NoError(t, f.store.Sequences().Seed(ctx, scope, initial))
	}
}

func TestCreateReceivableIssuesSequentialNumbersPerClass(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()

	first, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", PayerName: "Payer One", Amount: d("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "KA-0001", first.ReceiptNumber)
	assert.Equal(t, domain.StatusUnpaid, first.Status)

	second, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p2", PayerName: "Payer Two", Amount: d("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "KA-0002", second.ReceiptNumber)

	// Another class draws from its own counter.
	receipt, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassReceipt, PayerID: "p3", PayerName: "Payer Three", Amount: d("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "RA-0001", receipt.ReceiptNumber)
}

func TestCreateReceivableValidatesInput(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()

	_, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerName: "No ID", Amount: d("100"),
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)

	// The failed create burned no number.
	rec, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", Amount: d("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "KA-0001", rec.ReceiptNumber)
}

func TestConfirmCashPaymentSettlesFixedReceivable(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Cash Box", decimal.Zero, true)

	rec, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", PayerName: "Payer", Amount: d("250"),
	})
	require.NoError(t, err)

	paid, err := f.receivable.ConfirmCashPayment(ctx, rec.ID, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.Fixed.PaymentType)
	assert.Equal(t, domain.PaymentCash, *paid.Fixed.PaymentType)

	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("250")))

	// Second confirmation is refused, not double-credited.
	_, err = f.receivable.ConfirmCashPayment(ctx, rec.ID, acct.ID)
	assert.ErrorIs(t, err, xerrors.ErrReceivableTerminal)

	got, err = f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("250")))
}

func TestPayInstallmentAccumulatesAndNumbersEachLine(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Cash Box", decimal.Zero, true)

	rec, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", PayerName: "Payer",
		Amount: d("1000"), Installment: true,
	})
	require.NoError(t, err)

	partial, err := f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("400"), "first tranche")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartial, partial.Status)
	require.Len(t, partial.Installment.Payments, 1)
	assert.Equal(t, "RA-0001", partial.Installment.Payments[0].ReceiptNumber)

	_, err = f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("700"), "overshoot")
	assert.ErrorIs(t, err, xerrors.ErrOverpayment)

	// The rejected overshoot left no posting behind.
	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("400")))

	final, err := f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("600"), "final tranche")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, final.Status)
	assert.Equal(t, "RA-0002", final.Installment.Payments[1].ReceiptNumber)

	got, err = f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("1000")))
}

func TestPayInstallmentRefusesFixedReceivable(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Cash Box", decimal.Zero, true)

	rec, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", Amount: d("100"),
	})
	require.NoError(t, err)

	_, err = f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("50"), "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidRequest)
}

func TestRejectReversesLinkedPostings(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Cash Box", decimal.Zero, true)

	rec, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", PayerName: "Payer",
		Amount: d("1000"), Installment: true,
	})
	require.NoError(t, err)

	_, err = f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("300"), "")
	require.NoError(t, err)
	_, err = f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("200"), "")
	require.NoError(t, err)

	rejected, err := f.receivable.Reject(ctx, rec.ID, "duplicate invoice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	// Both linked credits were reversed with the rejection.
	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	_, err = f.receivable.PayInstallment(ctx, rec.ID, acct.ID, d("100"), "")
	assert.ErrorIs(t, err, xerrors.ErrReceivableTerminal)
}

func TestRejectWithoutReasonFails(t *testing.T) {
	f := newFixture(t)
	f.seedSequences(t)
	ctx := context.Background()

	rec, err := f.receivable.Create(ctx, CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", Amount: d("100"),
	})
	require.NoError(t, err)

	_, err = f.receivable.Reject(ctx, rec.ID, "")
	assert.ErrorIs(t, err, xerrors.ErrRejectReasonMissing)

	got, err := f.receivable.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnpaid, got.Status)
}
