package hrest

import (
	"encoding/json"
	"errors"
	"net/http"

	"finance-service/pkg/xerrors"
)

func sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func sendSuccess(w http.ResponseWriter, statusCode int, data any) {
	sendJSON(w, statusCode, map[string]any{
		"success": true,
		"data":    data,
	})
}

func sendError(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, map[string]any{
		"success": false,
		"message": message,
	})
}

// sendFailure maps error kinds to transport codes. The core's contract is the
// kind; the status code exists only at this layer.
func sendFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrInvalidAmount),
		errors.Is(err, xerrors.ErrInvalidInput),
		errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrSameAccountTransfer),
		errors.Is(err, xerrors.ErrWrongEntryType),
		errors.Is(err, xerrors.ErrRejectReasonMissing),
		errors.Is(err, xerrors.ErrInvalidNumberFormat):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrInsufficientFunds),
		errors.Is(err, xerrors.ErrOverpayment),
		errors.Is(err, xerrors.ErrReceivableTerminal),
		errors.Is(err, xerrors.ErrAmountMismatch):
		sendError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, xerrors.ErrSignatureInvalid):
		sendError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, xerrors.ErrTxConflict):
		// Conflicts are retryable by the caller.
		sendError(w, http.StatusConflict, err.Error())
	default:
		sendError(w, http.StatusInternalServerError, "internal server error")
	}
}
