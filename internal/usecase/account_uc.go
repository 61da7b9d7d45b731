package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/repository"
	"finance-service/pkg/utils"
	"finance-service/pkg/xerrors"
)

// AccountUsecase handles account onboarding and lookups. Balances are only
// ever changed through the ledger engine.
type AccountUsecase struct {
	store  repository.Store
	ids    *utils.IDGenerator
	logger *zap.Logger
}

func NewAccountUsecase(store repository.Store, ids *utils.IDGenerator, logger *zap.Logger) *AccountUsecase {
	return &AccountUsecase{
		store:  store,
		ids:    ids,
		logger: logger,
	}
}

type CreateAccountInput struct {
	Name           string
	Type           domain.AccountType
	IsPrimary      bool
	OpeningBalance decimal.Decimal
}

func accountNumberPrefix(t domain.AccountType) string {
	if t == domain.AccountBank {
		return "BNK"
	}
	return "CSH"
}

// Create onboards an account. When IsPrimary is set the flag is swapped off
// any existing primary account in the same unit of work.
func (uc *AccountUsecase) Create(ctx context.Context, in CreateAccountInput) (*domain.Account, error) {
	if in.Name == "" || !in.Type.Valid() {
		return nil, xerrors.ErrInvalidInput
	}
	if in.OpeningBalance.Sign() < 0 {
		return nil, xerrors.ErrInvalidAmount
	}

	now := time.Now()
	account := &domain.Account{
		ID:            uc.ids.NewID(),
		Name:          in.Name,
		AccountNumber: uc.ids.NewAccountNumber(accountNumberPrefix(in.Type)),
		Type:          in.Type,
		Balance:       in.OpeningBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		if err := uow.Accounts().Create(ctx, account); err != nil {
			return err
		}
		if in.IsPrimary {
			if err := uow.Accounts().SetPrimary(ctx, account.ID); err != nil {
				return err
			}
			account.IsPrimary = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("account_number", account.AccountNumber),
		zap.String("type", string(account.Type)))
	return account, nil
}

func (uc *AccountUsecase) Get(ctx context.Context, id string) (*domain.Account, error) {
	return uc.store.Accounts().GetByID(ctx, id)
}

func (uc *AccountUsecase) List(ctx context.Context, f *domain.AccountFilter) ([]*domain.Account, error) {
	return uc.store.Accounts().List(ctx, f)
}

// SetPrimary moves the primary flag to the given account.
func (uc *AccountUsecase) SetPrimary(ctx context.Context, id string) error {
	return uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		if _, err := uow.Accounts().GetForUpdate(ctx, id); err != nil {
			return err
		}
		return uow.Accounts().SetPrimary(ctx, id)
	})
}
