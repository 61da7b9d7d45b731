package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/repository"
	"finance-service/pkg/utils"
	"finance-service/pkg/xerrors"
)

// ReceivableUsecase drives the receivable lifecycle. Every transition that
// moves money pairs the receivable mutation with its ledger posting inside one
// unit of work: on ledger failure the receivable is left untouched.
type ReceivableUsecase struct {
	store    repository.Store
	ledger   *LedgerUsecase
	ids      *utils.IDGenerator
	notifier Notifier
	logger   *zap.Logger
}

func NewReceivableUsecase(store repository.Store, ledger *LedgerUsecase, ids *utils.IDGenerator, notifier Notifier, logger *zap.Logger) *ReceivableUsecase {
	return &ReceivableUsecase{
		store:    store,
		ledger:   ledger,
		ids:      ids,
		notifier: notifier,
		logger:   logger,
	}
}

func sequenceScopeFor(class domain.ReceivableClass) domain.SequenceScope {
	switch class {
	case domain.ClassCollection:
		return domain.ScopeCollectionNumber
	case domain.ClassPayment:
		return domain.ScopePaymentNumber
	default:
		return domain.ScopeReceiptNumber
	}
}

type CreateReceivableInput struct {
	Class       domain.ReceivableClass
	PayerID     string
	PayerName   string
	Description string
	Amount      decimal.Decimal
	// Installment selects the accumulating variant; Amount is then the total.
	Installment bool
}

// Create issues a receipt number from the class's counter and inserts the
// receivable in the same unit of work, so a number is never burned on a
// failed insert and never issued twice.
func (uc *ReceivableUsecase) Create(ctx context.Context, in CreateReceivableInput) (*domain.Receivable, error) {
	if in.PayerID == "" {
		return nil, xerrors.ErrInvalidInput
	}

	var rec *domain.Receivable
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		number, err := uow.Sequences().Next(ctx, sequenceScopeFor(in.Class))
		if err != nil {
			return err
		}

		if in.Installment {
			rec, err = domain.NewInstallmentReceivable(uc.ids.NewID(), in.Class, number, in.PayerID, in.PayerName, in.Description, in.Amount)
		} else {
			rec, err = domain.NewFixedReceivable(uc.ids.NewID(), in.Class, number, in.PayerID, in.PayerName, in.Description, in.Amount)
		}
		if err != nil {
			return err
		}
		return uow.Receivables().Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("receivable created",
		zap.String("receivable_id", rec.ID),
		zap.String("receipt_number", rec.ReceiptNumber),
		zap.String("class", string(rec.Class)))
	return rec, nil
}

func (uc *ReceivableUsecase) Get(ctx context.Context, id string) (*domain.Receivable, error) {
	return uc.store.Receivables().GetByID(ctx, id)
}

func (uc *ReceivableUsecase) ListByStatus(ctx context.Context, status domain.ReceivableStatus, limit, offset int) ([]*domain.Receivable, error) {
	return uc.store.Receivables().ListByStatus(ctx, status, limit, offset)
}

// ConfirmCashPayment is the manual staff confirmation for a fixed receivable:
// one credit to the chosen account and the Unpaid -> Paid transition, atomically.
func (uc *ReceivableUsecase) ConfirmCashPayment(ctx context.Context, receivableID, accountID string) (*domain.Receivable, error) {
	var rec *domain.Receivable
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		rec, err = uow.Receivables().GetForUpdate(ctx, receivableID)
		if err != nil {
			return err
		}
		if !rec.IsFixed() {
			return xerrors.ErrInvalidRequest
		}
		if rec.IsTerminal() {
			return xerrors.ErrReceivableTerminal
		}

		txn, err := uc.ledger.CreditTx(ctx, uow, accountID, rec.Fixed.Amount,
			fmt.Sprintf("cash payment for %s", rec.ReceiptNumber), string(rec.Class))
		if err != nil {
			return err
		}
		if err := rec.MarkPaid(domain.PaymentCash, accountID, txn.ID, time.Now()); err != nil {
			return err
		}
		return uow.Receivables().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	uc.notifyApplied(ctx, rec, rec.Fixed.Amount, domain.PaymentCash)
	return rec, nil
}

// PayInstallment records one cash installment: the amount must not overshoot
// the remaining balance, the line gets its own receipt number, and the credit
// posting commits in the same unit.
func (uc *ReceivableUsecase) PayInstallment(ctx context.Context, receivableID, accountID string, amount decimal.Decimal, description string) (*domain.Receivable, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var rec *domain.Receivable
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		rec, err = uow.Receivables().GetForUpdate(ctx, receivableID)
		if err != nil {
			return err
		}
		if rec.IsFixed() {
			return xerrors.ErrInvalidRequest
		}
		if rec.IsTerminal() {
			return xerrors.ErrReceivableTerminal
		}
		if amount.GreaterThan(rec.Remaining()) {
			return xerrors.ErrOverpayment
		}

		lineNumber, err := uow.Sequences().Next(ctx, domain.ScopeReceiptNumber)
		if err != nil {
			return err
		}
		txn, err := uc.ledger.CreditTx(ctx, uow, accountID, amount,
			fmt.Sprintf("installment for %s", rec.ReceiptNumber), string(rec.Class))
		if err != nil {
			return err
		}

		err = rec.AddInstallmentPayment(domain.InstallmentPayment{
			Amount:        amount,
			Date:          time.Now(),
			Description:   description,
			ReceiptNumber: lineNumber,
			TransactionID: txn.ID,
		})
		if err != nil {
			return err
		}
		return uow.Receivables().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	uc.notifyApplied(ctx, rec, amount, domain.PaymentCash)
	return rec, nil
}

// Reject moves a non-terminal receivable to Rejected. Linked ledger postings
// are reversed through the ledger engine inside the same unit of work, so the
// receivable and the ledger never diverge.
func (uc *ReceivableUsecase) Reject(ctx context.Context, receivableID, reason string) (*domain.Receivable, error) {
	var rec *domain.Receivable
	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		rec, err = uow.Receivables().GetForUpdate(ctx, receivableID)
		if err != nil {
			return err
		}

		for _, txnID := range rec.LinkedTransactionIDs() {
			if _, err := uc.ledger.DeleteCreditTx(ctx, uow, txnID); err != nil {
				return err
			}
		}
		if err := rec.Reject(reason); err != nil {
			return err
		}
		return uow.Receivables().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("receivable rejected",
		zap.String("receivable_id", rec.ID),
		zap.String("receipt_number", rec.ReceiptNumber),
		zap.String("reason", reason))
	uc.notifier.ReceivableRejected(context.WithoutCancel(ctx), rec, reason)
	return rec, nil
}

// notifyApplied fires the post-commit notification. It runs strictly after
// the financial unit committed and its failure never reaches the caller.
func (uc *ReceivableUsecase) notifyApplied(ctx context.Context, rec *domain.Receivable, amount decimal.Decimal, paymentType domain.PaymentType) {
	uc.notifier.PaymentApplied(context.WithoutCancel(ctx), PaymentAppliedEvent{
		ReceivableID:  rec.ID,
		ReceiptNumber: rec.ReceiptNumber,
		PayerID:       rec.PayerID,
		PayerName:     rec.PayerName,
		Amount:        amount,
		PaymentType:   paymentType,
		Status:        rec.Status,
		AppliedAt:     time.Now(),
	})
}
