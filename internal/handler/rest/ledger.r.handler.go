package hrest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/usecase"
)

type LedgerHandler struct {
	accountUC *usecase.AccountUsecase
	ledgerUC  *usecase.LedgerUsecase
	logger    *zap.Logger
}

func NewLedgerHandler(accountUC *usecase.AccountUsecase, ledgerUC *usecase.LedgerUsecase, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{accountUC: accountUC, ledgerUC: ledgerUC, logger: logger}
}

type createAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	IsPrimary      bool            `json:"is_primary"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.accountUC.Create(r.Context(), usecase.CreateAccountInput{
		Name:           req.Name,
		Type:           domain.AccountType(req.Type),
		IsPrimary:      req.IsPrimary,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusCreated, acct)
}

func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accountUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, acct)
}

func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	var filter domain.AccountFilter
	if t := r.URL.Query().Get("type"); t != "" {
		at := domain.AccountType(t)
		if !at.Valid() {
			sendError(w, http.StatusBadRequest, "unknown account type")
			return
		}
		filter.Type = &at
	}
	if p := r.URL.Query().Get("primary"); p != "" {
		primary, err := strconv.ParseBool(p)
		if err != nil {
			sendError(w, http.StatusBadRequest, "primary must be a boolean")
			return
		}
		filter.IsPrimary = &primary
	}

	accounts, err := h.accountUC.List(r.Context(), &filter)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, accounts)
}

func (h *LedgerHandler) SetPrimaryAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accountUC.SetPrimary(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, map[string]string{"status": "primary updated"})
}

type postingRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

type postingFn func(ctx context.Context, accountID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error)

func (h *LedgerHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledgerUC.Debit)
}

func (h *LedgerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledgerUC.Credit)
}

func (h *LedgerHandler) post(w http.ResponseWriter, r *http.Request, fn postingFn) {
	var req postingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	txn, err := fn(r.Context(), req.AccountID, req.Amount, req.Description, req.Category)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusCreated, txn)
}

type updatePostingRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

type updatePostingFn func(ctx context.Context, transactionID string, amount decimal.Decimal, description, category string) (*domain.Transaction, error)

func (h *LedgerHandler) UpdateDebit(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.ledgerUC.UpdateDebit)
}

func (h *LedgerHandler) UpdateCredit(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.ledgerUC.UpdateCredit)
}

func (h *LedgerHandler) update(w http.ResponseWriter, r *http.Request, fn updatePostingFn) {
	var req updatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	txn, err := fn(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Description, req.Category)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, txn)
}

func (h *LedgerHandler) DeleteDebit(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledgerUC.DeleteDebit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, map[string]any{"balance": balance})
}

func (h *LedgerHandler) DeleteCredit(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledgerUC.DeleteCredit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, map[string]any{"balance": balance})
}

type transferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.ledgerUC.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusCreated, result)
}

func (h *LedgerHandler) Statement(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	acct, txns, err := h.ledgerUC.Statement(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, http.StatusOK, map[string]any{
		"account":      acct,
		"transactions": txns,
	})
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
