package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// Ledger
var (
	ErrInvalidAmount       = errors.New("amount must be a positive finite value")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrWrongEntryType      = errors.New("transaction entry type does not match operation")
)

// Receivables / reconciliation
var (
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrReceivableTerminal  = errors.New("receivable is in a terminal state")
	ErrRejectReasonMissing = errors.New("reject reason is required")
	ErrAmountMismatch      = errors.New("notified amount does not match receivable")
	ErrOverpayment         = errors.New("payment exceeds remaining amount")
	ErrSignatureInvalid    = errors.New("webhook signature invalid")
)

// Sequence numbers
var ErrInvalidNumberFormat = errors.New("reference number has no numeric suffix")

// ErrTxConflict is returned when the store aborts a unit of work because of a
// conflicting concurrent write. The operation left no partial state and is
// safe for the caller to retry.
var ErrTxConflict = errors.New("transaction aborted by concurrent conflict")

// ParsePGErrorCode extracts the SQLSTATE code from a postgres error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsSerializationFailure reports whether the store rejected a unit of work due
// to serialization failure or deadlock detection.
func IsSerializationFailure(err error) bool {
	code := ParsePGErrorCode(err)
	return code == "40001" || code == "40P01"
}
