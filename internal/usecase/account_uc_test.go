package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-service/internal/domain"
	"finance-service/pkg/xerrors"
)

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Create(ctx, CreateAccountInput{Type: domain.AccountBank})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = f.accounts.Create(ctx, CreateAccountInput{Name: "X", Type: "wallet"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = f.accounts.Create(ctx, CreateAccountInput{
		Name: "X", Type: domain.AccountBank, OpeningBalance: d("-1"),
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidAmount)
}

func TestCreateAccountNumbersByType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank, err := f.accounts.Create(ctx, CreateAccountInput{Name: "Bank", Type: domain.AccountBank})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bank.AccountNumber, "BNK-"))

	cash, err := f.accounts.Create(ctx, CreateAccountInput{Name: "Cash", Type: domain.AccountCash})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cash.AccountNumber, "CSH-"))
}

func TestPrimaryFlagMovesBetweenAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.mustAccount(t, "First", decimal.Zero, true)
	second := f.mustAccount(t, "Second", decimal.Zero, false)

	got, err := f.store.Accounts().GetPrimary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, f.accounts.SetPrimary(ctx, second.ID))

	got, err = f.store.Accounts().GetPrimary(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	// Exactly one primary at any time.
	primary := true
	accounts, err := f.accounts.List(ctx, &domain.AccountFilter{IsPrimary: &primary})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestSetPrimaryUnknownAccount(t *testing.T) {
	f := newFixture(t)
	err := f.accounts.SetPrimary(context.Background(), "missing")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
