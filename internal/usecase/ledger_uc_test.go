package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/repository/memory"
	"finance-service/pkg/utils"
	"finance-service/pkg/xerrors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store      *memory.Store
	ledger     *LedgerUsecase
	accounts   *AccountUsecase
	receivable *ReceivableUsecase
	reconcile  *ReconcileUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ids := utils.NewIDGenerator()
	logger := zap.NewNop()

	ledger := NewLedgerUsecase(store, ids, logger)
	return &fixture{
		store:      store,
		ledger:     ledger,
		accounts:   NewAccountUsecase(store, ids, logger),
		receivable: NewReceivableUsecase(store, ledger, ids, NopNotifier{}, logger),
		reconcile:  NewReconcileUsecase(store, ledger, NopNotifier{}, testWebhookSecret, logger),
	}
}

func (f *fixture) mustAccount(t *testing.T, name string, opening decimal.Decimal, primary bool) *domain.Account {
	t.Helper()
	acct, err := f.accounts.Create(context.Background(), CreateAccountInput{
		Name:           name,
		Type:           domain.AccountBank,
		IsPrimary:      primary,
		OpeningBalance: opening,
	})
	require.NoError(t, err)
	return acct
}

// sumHistory recomputes the balance from the full posting history.
func (f *fixture) sumHistory(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	txns, err := f.store.Transactions().ListByAccount(context.Background(), accountID, 1000, 0)
	require.NoError(t, err)
	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Effect())
	}
	return total
}

func TestCreditThenDebitScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Main", d("1000"), true)

	credit, err := f.ledger.Credit(ctx, acct.ID, d("200"), "donation", "income")
	require.NoError(t, err)
	assert.True(t, credit.OpeningBalance.Equal(d("1000")))
	assert.True(t, credit.ClosingBalance.Equal(d("1200")))

	debit, err := f.ledger.Debit(ctx, acct.ID, d("1200"), "rent", "expense")
	require.NoError(t, err)
	assert.True(t, debit.ClosingBalance.IsZero())

	_, err = f.ledger.Debit(ctx, acct.ID, d("1"), "overdraw", "expense")
	assert.ErrorIs(t, err, xerrors.ErrInsufficientFunds)

	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestPostingRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Main", d("100"), true)

	_, err := f.ledger.Credit(ctx, acct.ID, decimal.Zero, "", "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)

	_, err = f.ledger.Debit(ctx, acct.ID, d("-10"), "", "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)
}

func TestBalanceEqualsHistorySum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Main", decimal.Zero, true)

	_, err := f.ledger.Credit(ctx, acct.ID, d("500"), "a", "income")
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, acct.ID, d("120"), "b", "expense")
	require.NoError(t, err)
	credit, err := f.ledger.Credit(ctx, acct.ID, d("80"), "c", "income")
	require.NoError(t, err)

	// Mutate, then delete, and re-check the invariant after each step.
	_, err = f.ledger.UpdateCredit(ctx, credit.ID, d("30"), "c2", "income")
	require.NoError(t, err)

	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(f.sumHistory(t, acct.ID)))
	assert.True(t, got.Balance.Equal(d("410")))

	_, err = f.ledger.DeleteCredit(ctx, credit.ID)
	require.NoError(t, err)

	got, err = f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(f.sumHistory(t, acct.ID)))
	assert.True(t, got.Balance.Equal(d("380")))
}

func TestUpdatePostingChecksEntryTypeAndSufficiency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Main", d("100"), true)

	credit, err := f.ledger.Credit(ctx, acct.ID, d("50"), "", "")
	require.NoError(t, err)

	_, err = f.ledger.UpdateDebit(ctx, credit.ID, d("20"), "", "")
	assert.ErrorIs(t, err, xerrors.ErrWrongEntryType)

	debit, err := f.ledger.Debit(ctx, acct.ID, d("40"), "", "")
	require.NoError(t, err)

	// Reversed balance is 150; raising the debit to 200 would overdraw.
	_, err = f.ledger.UpdateDebit(ctx, debit.ID, d("200"), "", "")
	assert.ErrorIs(t, err, xerrors.ErrInsufficientFunds)

	// The failed update left everything untouched.
	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("110")))
}

func TestDeleteCreditCannotOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Main", decimal.Zero, true)

	credit, err := f.ledger.Credit(ctx, acct.ID, d("100"), "", "")
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, acct.ID, d("60"), "", "")
	require.NoError(t, err)

	// Balance is 40; reversing the 100 credit would go negative.
	_, err = f.ledger.DeleteCredit(ctx, credit.ID)
	assert.ErrorIs(t, err, xerrors.ErrInsufficientFunds)

	got, err := f.accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("40")))
}

func TestTransferIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := f.mustAccount(t, "Bank", d("300"), true)
	to := f.mustAccount(t, "Cash", decimal.Zero, false)

	result, err := f.ledger.Transfer(ctx, from.ID, to.ID, d("120"))
	require.NoError(t, err)
	assert.True(t, result.Debit.ClosingBalance.Equal(d("180")))
	assert.True(t, result.Credit.ClosingBalance.Equal(d("120")))

	// Insufficient source funds roll back both legs.
	_, err = f.ledger.Transfer(ctx, from.ID, to.ID, d("500"))
	assert.ErrorIs(t, err, xerrors.ErrInsufficientFunds)

	gotFrom, err := f.accounts.Get(ctx, from.ID)
	require.NoError(t, err)
	gotTo, err := f.accounts.Get(ctx, to.ID)
	require.NoError(t, err)
	assert.True(t, gotFrom.Balance.Equal(d("180")))
	assert.True(t, gotTo.Balance.Equal(d("120")))
	assert.True(t, gotTo.Balance.Equal(f.sumHistory(t, to.ID)))
}

func TestTransferRejectsSameAccount(t *testing.T) {
	f := newFixture(t)
	acct := f.mustAccount(t, "Main", d("100"), true)

	_, err := f.ledger.Transfer(context.Background(), acct.ID, acct.ID, d("10"))
	assert.ErrorIs(t, err, xerrors.ErrSameAccountTransfer)
}

func TestStatementListsPostingsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.mustAccount(t, "Main", decimal.Zero, true)

	_, err := f.ledger.Credit(ctx, acct.ID, d("10"), "first", "income")
	require.NoError(t, err)
	_, err = f.ledger.Credit(ctx, acct.ID, d("20"), "second", "income")
	require.NoError(t, err)

	account, txns, err := f.ledger.Statement(ctx, acct.ID, 10, 0)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(d("30")))
	require.Len(t, txns, 2)
	assert.Equal(t, "first", txns[0].Description)
	assert.Equal(t, "second", txns[1].Description)
}
