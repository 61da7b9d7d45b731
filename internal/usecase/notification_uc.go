package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/pub"
)

// Notifier is the outbound notification collaborator. Calls run strictly
// after the financial unit of work committed; implementations are best-effort
// and must never surface failures to the caller.
type Notifier interface {
	PaymentApplied(ctx context.Context, evt PaymentAppliedEvent)
	ReceivableRejected(ctx context.Context, rec *domain.Receivable, reason string)
}

type PaymentAppliedEvent struct {
	ReceivableID  string                  `json:"receivable_id"`
	ReceiptNumber string                  `json:"receipt_number"`
	PayerID       string                  `json:"payer_id"`
	PayerName     string                  `json:"payer_name"`
	Amount        decimal.Decimal         `json:"amount"`
	PaymentType   domain.PaymentType      `json:"payment_type"`
	Status        domain.ReceivableStatus `json:"status"`
	AppliedAt     time.Time               `json:"applied_at"`
}

type receivableRejectedEvent struct {
	ReceivableID  string    `json:"receivable_id"`
	ReceiptNumber string    `json:"receipt_number"`
	PayerID       string    `json:"payer_id"`
	Reason        string    `json:"reason"`
	RejectedAt    time.Time `json:"rejected_at"`
}

type chatMessage struct {
	PayerID   string `json:"payer_id"`
	PayerName string `json:"payer_name"`
	Text      string `json:"text"`
}

// chatThrottleTTL caps chat pings at one per payer per day. The last-run
// marker lives in redis, not process memory, so it survives restarts and is
// shared across instances.
const chatThrottleTTL = 24 * time.Hour

// NotificationUsecase publishes payment events to kafka and gates the chat
// ping behind a per-payer daily throttle.
type NotificationUsecase struct {
	events *pub.Publisher
	chat   *pub.Publisher
	rdb    *redis.Client
	logger *zap.Logger
}

func NewNotificationUsecase(events, chat *pub.Publisher, rdb *redis.Client, logger *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{
		events: events,
		chat:   chat,
		rdb:    rdb,
		logger: logger,
	}
}

var _ Notifier = (*NotificationUsecase)(nil)

func (uc *NotificationUsecase) PaymentApplied(ctx context.Context, evt PaymentAppliedEvent) {
	if err := uc.events.Publish(ctx, evt.PayerID, evt); err != nil {
		uc.logger.Error("failed to publish payment event",
			zap.String("receipt_number", evt.ReceiptNumber),
			zap.Error(err))
	}

	if !uc.shouldPing(ctx, evt.PayerID) {
		return
	}
	msg := chatMessage{
		PayerID:   evt.PayerID,
		PayerName: evt.PayerName,
		Text: fmt.Sprintf("Payment of %s received for %s, status %s",
			evt.Amount.StringFixed(2), evt.ReceiptNumber, evt.Status),
	}
	if err := uc.chat.Publish(ctx, evt.PayerID, msg); err != nil {
		uc.logger.Error("failed to publish chat notification",
			zap.String("payer_id", evt.PayerID),
			zap.Error(err))
	}
}

func (uc *NotificationUsecase) ReceivableRejected(ctx context.Context, rec *domain.Receivable, reason string) {
	evt := receivableRejectedEvent{
		ReceivableID:  rec.ID,
		ReceiptNumber: rec.ReceiptNumber,
		PayerID:       rec.PayerID,
		Reason:        reason,
		RejectedAt:    time.Now(),
	}
	if err := uc.events.Publish(ctx, rec.PayerID, evt); err != nil {
		uc.logger.Error("failed to publish rejection event",
			zap.String("receipt_number", rec.ReceiptNumber),
			zap.Error(err))
	}
}

// shouldPing claims the payer's daily chat slot. Redis being down only
// suppresses the ping; the kafka event has already been published.
func (uc *NotificationUsecase) shouldPing(ctx context.Context, payerID string) bool {
	key := fmt.Sprintf("notify:chat:%s:%s", payerID, time.Now().Format("2006-01-02"))
	ok, err := uc.rdb.SetNX(ctx, key, time.Now().Unix(), chatThrottleTTL).Result()
	if err != nil {
		uc.logger.Warn("chat throttle check failed", zap.Error(err))
		return false
	}
	return ok
}

// NopNotifier satisfies Notifier without side effects; tests use it.
type NopNotifier struct{}

func (NopNotifier) PaymentApplied(context.Context, PaymentAppliedEvent)            {}
func (NopNotifier) ReceivableRejected(context.Context, *domain.Receivable, string) {}
