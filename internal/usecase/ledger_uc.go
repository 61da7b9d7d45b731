package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/repository"
	"finance-service/pkg/utils"
	"finance-service/pkg/xerrors"
)

// LedgerUsecase is the ledger engine: every operation that touches an account
// and its history runs inside one serializable unit of work, so a balance is
// never observable without its matching posting or vice versa.
//
// The *Tx variants take an open UnitOfWork so other usecases (receivables,
// reconciliation) can compose a posting into their own atomic unit.
type LedgerUsecase struct {
	store  repository.Store
	ids    *utils.IDGenerator
	logger *zap.Logger
}

func NewLedgerUsecase(store repository.Store, ids *utils.IDGenerator, logger *zap.Logger) *LedgerUsecase {
	return &LedgerUsecase{
		store:  store,
		ids:    ids,
		logger: logger,
	}
}

// TransferResult carries the two legs of a transfer; both were committed in
// the same unit of work.
type TransferResult struct {
	Debit  *domain.Transaction `json:"debit"`
	Credit *domain.Transaction `json:"credit"`
}

// Debit posts a withdrawal against the account.
func (uc *LedgerUsecase) Debit(ctx context.Context, accountID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		txn, err = uc.DebitTx(ctx, uow, accountID, amount, description, category)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Credit posts a deposit to the account.
func (uc *LedgerUsecase) Credit(ctx context.Context, accountID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		txn, err = uc.CreditTx(ctx, uow, accountID, amount, description, category)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (uc *LedgerUsecase) DebitTx(ctx context.Context, uow repository.UnitOfWork, accountID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	account, err := uow.Accounts().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(amount) {
		return nil, xerrors.ErrInsufficientFunds
	}

	txn := domain.NewPosting(uc.ids.NewID(), account, domain.EntryDebit, amount, description, category)
	if err := uow.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := uow.Accounts().UpdateBalance(ctx, account.ID, txn.ClosingBalance); err != nil {
		return nil, err
	}

	uc.logger.Info("posted debit",
		zap.String("transaction_id", txn.ID),
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()))
	return txn, nil
}

func (uc *LedgerUsecase) CreditTx(ctx context.Context, uow repository.UnitOfWork, accountID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	account, err := uow.Accounts().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	txn := domain.NewPosting(uc.ids.NewID(), account, domain.EntryCredit, amount, description, category)
	if err := uow.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := uow.Accounts().UpdateBalance(ctx, account.ID, txn.ClosingBalance); err != nil {
		return nil, err
	}

	uc.logger.Info("posted credit",
		zap.String("transaction_id", txn.ID),
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()))
	return txn, nil
}

// UpdateDebit replays a debit posting with a new amount: the original effect
// is reversed, sufficiency is re-checked against the reversed balance, and the
// posting's opening/closing pair is recomputed from it.
func (uc *LedgerUsecase) UpdateDebit(ctx context.Context, transactionID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	return uc.updatePosting(ctx, transactionID, domain.EntryDebit, amount, description, category)
}

// UpdateCredit replays a credit posting with a new amount.
func (uc *LedgerUsecase) UpdateCredit(ctx context.Context, transactionID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	return uc.updatePosting(ctx, transactionID, domain.EntryCredit, amount, description, category)
}

func (uc *LedgerUsecase) updatePosting(ctx context.Context, transactionID string, entry domain.EntryType, amount decimal.Decimal, description, category string) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var updated *domain.Transaction
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		txn, err := uow.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.Entry != entry {
			return xerrors.ErrWrongEntryType
		}

		account, err := uow.Accounts().GetForUpdate(ctx, txn.AccountID)
		if err != nil {
			return err
		}

		reversed := account.Balance.Sub(txn.Effect())

		txn.Amount = amount
		txn.Description = description
		txn.Category = category
		txn.OpeningBalance = reversed
		if entry == domain.EntryDebit {
			if reversed.LessThan(amount) {
				return xerrors.ErrInsufficientFunds
			}
			txn.ClosingBalance = reversed.Sub(amount)
		} else {
			txn.ClosingBalance = reversed.Add(amount)
		}

		if err := uow.Transactions().Update(ctx, txn); err != nil {
			return err
		}
		if err := uow.Accounts().UpdateBalance(ctx, account.ID, txn.ClosingBalance); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("updated posting",
		zap.String("transaction_id", transactionID),
		zap.String("entry", string(entry)),
		zap.String("amount", amount.String()))
	return updated, nil
}

// DeleteDebit reverses a debit posting and removes it, returning the new
// account balance.
func (uc *LedgerUsecase) DeleteDebit(ctx context.Context, transactionID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		balance, err = uc.deletePostingTx(ctx, uow, transactionID, domain.EntryDebit)
		return err
	})
	return balance, err
}

// DeleteCredit reverses a credit posting and removes it. It fails with
// InsufficientFunds when taking the credited amount back would drive the
// balance negative.
func (uc *LedgerUsecase) DeleteCredit(ctx context.Context, transactionID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		balance, err = uc.DeleteCreditTx(ctx, uow, transactionID)
		return err
	})
	return balance, err
}

// DeleteCreditTx is the composable form used when a receivable rejection must
// reverse its linked posting inside the caller's unit of work.
func (uc *LedgerUsecase) DeleteCreditTx(ctx context.Context, uow repository.UnitOfWork, transactionID string) (decimal.Decimal, error) {
	return uc.deletePostingTx(ctx, uow, transactionID, domain.EntryCredit)
}

func (uc *LedgerUsecase) deletePostingTx(ctx context.Context, uow repository.UnitOfWork, transactionID string, entry domain.EntryType) (decimal.Decimal, error) {
	txn, err := uow.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	if txn.Entry != entry {
		return decimal.Zero, xerrors.ErrWrongEntryType
	}

	account, err := uow.Accounts().GetForUpdate(ctx, txn.AccountID)
	if err != nil {
		return decimal.Zero, err
	}

	reversed := account.Balance.Sub(txn.Effect())
	if reversed.Sign() < 0 {
		return decimal.Zero, xerrors.ErrInsufficientFunds
	}

	if err := uow.Transactions().Delete(ctx, txn.ID); err != nil {
		return decimal.Zero, err
	}
	if err := uow.Accounts().UpdateBalance(ctx, account.ID, reversed); err != nil {
		return decimal.Zero, err
	}

	uc.logger.Info("deleted posting",
		zap.String("transaction_id", transactionID),
		zap.String("entry", string(entry)),
		zap.String("new_balance", reversed.String()))
	return reversed, nil
}

// Transfer moves amount between two accounts: one debit plus one credit that
// commit together or not at all. Accounts are locked in ID order so two
// opposing transfers cannot deadlock.
func (uc *LedgerUsecase) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*TransferResult, error) {
	if fromAccountID == toAccountID {
		return nil, xerrors.ErrSameAccountTransfer
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var result TransferResult
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		first, second := fromAccountID, toAccountID
		if second < first {
			first, second = second, first
		}
		if _, err := uow.Accounts().GetForUpdate(ctx, first); err != nil {
			return err
		}
		if _, err := uow.Accounts().GetForUpdate(ctx, second); err != nil {
			return err
		}

		debit, err := uc.DebitTx(ctx, uow, fromAccountID, amount,
			fmt.Sprintf("transfer to account %s", toAccountID), "transfer")
		if err != nil {
			return err
		}
		credit, err := uc.CreditTx(ctx, uow, toAccountID, amount,
			fmt.Sprintf("transfer from account %s", fromAccountID), "transfer")
		if err != nil {
			return err
		}

		result = TransferResult{Debit: debit, Credit: credit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Statement returns an account together with its postings in creation order.
// Read-side joins beyond this (payer names, receivable links) belong to the
// consuming layer.
func (uc *LedgerUsecase) Statement(ctx context.Context, accountID string, limit, offset int) (*domain.Account, []*domain.Transaction, error) {
	account, err := uc.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	txns, err := uc.store.Transactions().ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return account, txns, nil
}
