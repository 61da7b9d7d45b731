package hrest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/usecase"
)

type ReceivableHandler struct {
	receivableUC *usecase.ReceivableUsecase
	logger       *zap.Logger
}

func NewReceivableHandler(receivableUC *usecase.ReceivableUsecase, logger *zap.Logger) *ReceivableHandler {
	return &ReceivableHandler{receivableUC: receivableUC, logger: logger}
}

type createReceivableRequest struct {
	Class       string          `json:"class"`
	PayerID     string          `json:"payer_id"`
	PayerName   string          `json:"payer_name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Installment bool            `json:"installment"`
}

func (h *ReceivableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReceivableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.receivableUC.Create(r.Context(), usecase.CreateReceivableInput{
		Class:       domain.ReceivableClass(req.Class),
		PayerID:     req.PayerID,
		PayerName:   req.PayerName,
		Description: req.Description,
		Amount:      req.Amount,
		Installment: req.Installment,
	})
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusCreated, rec)
}

func (h *ReceivableHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.receivableUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, rec)
}

func (h *ReceivableHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.ReceivableStatus(r.URL.Query().Get("status"))
	limit, offset := pageParams(r)
	recs, err := h.receivableUC.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, recs)
}

type confirmCashRequest struct {
	AccountID string `json:"account_id"`
}

func (h *ReceivableHandler) ConfirmCashPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmCashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.receivableUC.ConfirmCashPayment(r.Context(), chi.URLParam(r, "id"), req.AccountID)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, rec)
}

type payInstallmentRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *ReceivableHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	var req payInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.receivableUC.PayInstallment(r.Context(), chi.URLParam(r, "id"), req.AccountID, req.Amount, req.Description)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, rec)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *ReceivableHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.receivableUC.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, rec)
}
