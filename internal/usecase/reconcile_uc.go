package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/repository"
	"finance-service/pkg/security"
	"finance-service/pkg/xerrors"
)

// ReconcileUsecase turns an at-least-once, signed "payment captured"
// notification from the gateway into exactly one ledger credit and one
// receivable update. The idempotency guard is the receivable's own status,
// checked under a row lock, so duplicate deliveries and concurrent retries
// collapse to a single application.
type ReconcileUsecase struct {
	store    repository.Store
	ledger   *LedgerUsecase
	notifier Notifier
	secret   string
	logger   *zap.Logger
}

func NewReconcileUsecase(store repository.Store, ledger *LedgerUsecase, notifier Notifier, webhookSecret string, logger *zap.Logger) *ReconcileUsecase {
	return &ReconcileUsecase{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		secret:   webhookSecret,
		logger:   logger,
	}
}

const eventPaymentCaptured = "payment.captured"

// gatewayEnvelope is the webhook shape delivered by the payment gateway.
// Amounts arrive in minor units; the correlation token embedded at order
// creation comes back in the notes block.
type gatewayEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity gatewayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type gatewayPayment struct {
	ID     string       `json:"id"`
	Amount int64        `json:"amount"`
	Notes  gatewayNotes `json:"notes"`
}

type gatewayNotes struct {
	ReceiptNumber string `json:"receipt_number"`
	Installment   string `json:"installment,omitempty"`
}

// ApplyResult reports what a delivery did. Applied is false for the benign
// no-op outcomes (duplicate delivery, unresolvable correlation token).
type ApplyResult struct {
	Applied       bool   `json:"applied"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
}

// ApplyPayment verifies the signature over the raw payload, resolves the
// correlation token and applies the payment. Nothing is mutated before the
// signature check passes; an unresolvable token is acknowledged without
// mutation so the gateway stops retrying a request that can never succeed.
func (uc *ReconcileUsecase) ApplyPayment(ctx context.Context, rawPayload []byte, signatureHeader string) (*ApplyResult, error) {
	if err := security.VerifySignature(rawPayload, signatureHeader, uc.secret); err != nil {
		uc.logger.Warn("webhook signature rejected", zap.Int("payload_size", len(rawPayload)))
		return nil, err
	}

	var env gatewayEnvelope
	if err := json.Unmarshal(rawPayload, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook payload", xerrors.ErrInvalidRequest)
	}
	if env.Event != eventPaymentCaptured {
		uc.logger.Info("ignoring webhook event", zap.String("event", env.Event))
		return &ApplyResult{Applied: false}, nil
	}

	entity := env.Payload.Payment.Entity
	token := entity.Notes.ReceiptNumber
	if token == "" {
		uc.logger.Warn("webhook carries no correlation token", zap.String("gateway_payment_id", entity.ID))
		return &ApplyResult{Applied: false}, nil
	}
	amount := decimal.NewFromInt(entity.Amount).Shift(-2)

	result, evt, err := uc.apply(ctx, token, amount, entity.Notes.Installment)
	if err != nil {
		return nil, err
	}

	if result.Applied {
		uc.notifier.PaymentApplied(context.WithoutCancel(ctx), *evt)
	}
	return result, nil
}

// apply performs the financial unit: receivable row lock, idempotency
// short-circuit, amount validation, then the paired credit and receivable
// mutation. The unit commits whole or not at all.
func (uc *ReconcileUsecase) apply(ctx context.Context, token string, amount decimal.Decimal, installmentNote string) (*ApplyResult, *PaymentAppliedEvent, error) {
	var (
		result ApplyResult
		evt    PaymentAppliedEvent
	)

	err := uc.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		rec, err := uow.Receivables().GetByReceiptNumberForUpdate(ctx, token)
		if err != nil {
			if errors.Is(err, xerrors.ErrNotFound) {
				// Benign: the gateway would otherwise retry forever against a
				// receivable this system never issued.
				uc.logger.Warn("unresolvable correlation token", zap.String("token", token))
				result = ApplyResult{Applied: false}
				return nil
			}
			return err
		}

		if rec.Status == domain.StatusPaid {
			uc.logger.Info("duplicate payment delivery ignored",
				zap.String("receipt_number", rec.ReceiptNumber))
			result = ApplyResult{Applied: false, ReceiptNumber: rec.ReceiptNumber}
			return nil
		}
		if rec.Status == domain.StatusRejected {
			uc.logger.Error("payment delivered for rejected receivable, flagging for manual review",
				zap.String("receipt_number", rec.ReceiptNumber),
				zap.String("amount", amount.String()))
			return xerrors.ErrReceivableTerminal
		}

		if rec.IsFixed() {
			if !amount.Equal(rec.Fixed.Amount) {
				uc.logger.Error("notified amount mismatch, flagging for manual review",
					zap.String("receipt_number", rec.ReceiptNumber),
					zap.String("expected", rec.Fixed.Amount.String()),
					zap.String("notified", amount.String()))
				return xerrors.ErrAmountMismatch
			}
		} else if amount.GreaterThan(rec.Remaining()) {
			uc.logger.Error("notified amount exceeds remaining balance, flagging for manual review",
				zap.String("receipt_number", rec.ReceiptNumber),
				zap.String("remaining", rec.Remaining().String()),
				zap.String("notified", amount.String()))
			return xerrors.ErrAmountMismatch
		}

		target, err := uow.Accounts().GetPrimary(ctx)
		if err != nil {
			return err
		}

		txn, err := uc.ledger.CreditTx(ctx, uow, target.ID, amount,
			fmt.Sprintf("online payment for %s", rec.ReceiptNumber), "online_payment")
		if err != nil {
			return err
		}

		now := time.Now()
		if rec.IsFixed() {
			if err := rec.MarkPaid(domain.PaymentOnline, target.ID, txn.ID, now); err != nil {
				return err
			}
		} else {
			lineNumber, err := uow.Sequences().Next(ctx, domain.ScopeReceiptNumber)
			if err != nil {
				return err
			}
			description := "online installment"
			if installmentNote != "" {
				description = fmt.Sprintf("online installment %s", installmentNote)
			}
			err = rec.AddInstallmentPayment(domain.InstallmentPayment{
				Amount:        amount,
				Date:          now,
				Description:   description,
				ReceiptNumber: lineNumber,
				TransactionID: txn.ID,
			})
			if err != nil {
				return err
			}
		}

		if err := uow.Receivables().Update(ctx, rec); err != nil {
			return err
		}

		result = ApplyResult{Applied: true, ReceiptNumber: rec.ReceiptNumber}
		evt = PaymentAppliedEvent{
			ReceivableID:  rec.ID,
			ReceiptNumber: rec.ReceiptNumber,
			PayerID:       rec.PayerID,
			PayerName:     rec.PayerName,
			Amount:        amount,
			PaymentType:   domain.PaymentOnline,
			Status:        rec.Status,
			AppliedAt:     now,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &result, &evt, nil
}
