package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/config"
	"finance-service/internal/domain"
	"finance-service/internal/repository"
	"finance-service/internal/usecase"
	"finance-service/pkg/xerrors"
)

// Seeder prepares first-run state: the three reference-number counters and a
// default primary bank account plus cash box, so the ledger is usable before
// any staff onboarding happens.
type Seeder struct {
	store     repository.Store
	accountUC *usecase.AccountUsecase
	cfg       config.AppConfig
	logger    *zap.Logger
}

func NewSeeder(store repository.Store, accountUC *usecase.AccountUsecase, cfg config.AppConfig, logger *zap.Logger) *Seeder {
	return &Seeder{
		store:     store,
		accountUC: accountUC,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		seeds := map[domain.SequenceScope]string{
			domain.ScopeCollectionNumber: s.cfg.CollectionNumberStart,
			domain.ScopeReceiptNumber:    s.cfg.ReceiptNumberStart,
			domain.ScopePaymentNumber:    s.cfg.PaymentNumberStart,
		}
		for scope, initial := range seeds {
			if err := uow.Sequences().Seed(ctx, scope, initial); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := s.store.Accounts().GetPrimary(ctx); err == nil {
		return nil
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	if _, err := s.accountUC.Create(ctx, usecase.CreateAccountInput{
		Name:           "Main Bank Account",
		Type:           domain.AccountBank,
		IsPrimary:      true,
		OpeningBalance: decimal.Zero,
	}); err != nil {
		return err
	}
	if _, err := s.accountUC.Create(ctx, usecase.CreateAccountInput{
		Name:           "Cash Box",
		Type:           domain.AccountCash,
		OpeningBalance: decimal.Zero,
	}); err != nil {
		return err
	}

	s.logger.Info("seeded default accounts and sequence counters")
	return nil
}
