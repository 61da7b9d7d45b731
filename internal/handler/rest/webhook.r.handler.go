package hrest

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"finance-service/internal/usecase"
	"finance-service/pkg/xerrors"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	reconcileUC *usecase.ReconcileUsecase
	sigHeader   string
	logger      *zap.Logger
}

func NewWebhookHandler(reconcileUC *usecase.ReconcileUsecase, sigHeader string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconcileUC: reconcileUC, sigHeader: sigHeader, logger: logger}
}

// HandleGatewayCallback applies a payment gateway webhook. The signature is
// verified over the raw body exactly as received, so the body must not be
// decoded before verification.
//
// Response codes steer the gateway's retry behavior: 2xx acknowledges the
// delivery and stops retries, 5xx asks for a redelivery. Disputes that a
// retry can never fix (amount mismatch, payment against a rejected
// receivable) are acknowledged and logged for manual review instead of
// looping forever in the gateway's retry queue.
func (h *WebhookHandler) HandleGatewayCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		sendError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	result, err := h.reconcileUC.ApplyPayment(r.Context(), body, r.Header.Get(h.sigHeader))
	switch {
	case err == nil:
		sendSuccess(w, http.StatusOK, result)
	case errors.Is(err, xerrors.ErrSignatureInvalid):
		sendError(w, http.StatusUnauthorized, "invalid signature")
	case errors.Is(err, xerrors.ErrInvalidRequest):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrAmountMismatch),
		errors.Is(err, xerrors.ErrReceivableTerminal),
		errors.Is(err, xerrors.ErrOverpayment):
		h.logger.Error("webhook payment needs manual review", zap.Error(err))
		sendSuccess(w, http.StatusOK, &usecase.ApplyResult{Applied: false})
	default:
		// Conflicts and transient failures surface as 5xx so the
		// gateway redelivers.
		h.logger.Error("webhook apply failed", zap.Error(err))
		sendError(w, http.StatusInternalServerError, "internal server error")
	}
}
