package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"finance-service/pkg/xerrors"
)

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// Transaction is one append-only ledger posting against a single account.
// OpeningBalance and ClosingBalance freeze the account balance at post time:
// closing = opening - amount for a debit, opening + amount for a credit.
// A posting is immutable except through its paired update/delete operation,
// which also reverses the effect on the account.
type Transaction struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Entry          EntryType       `json:"entry"`
	Amount         decimal.Decimal `json:"amount"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewPosting builds a posting from the account's current balance. The caller
// has already validated the amount and, for debits, checked sufficiency.
func NewPosting(id string, account *Account, entry EntryType, amount decimal.Decimal, description, category string) *Transaction {
	opening := account.Balance
	closing := opening.Add(amount)
	if entry == EntryDebit {
		closing = opening.Sub(amount)
	}

	return &Transaction{
		ID:             id,
		AccountID:      account.ID,
		Entry:          entry,
		Amount:         amount,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Category:       category,
		Description:    description,
		CreatedAt:      time.Now(),
	}
}

// Effect returns the signed contribution of this posting to the account
// balance: negative for debits, positive for credits.
func (t *Transaction) Effect() decimal.Decimal {
	if t.Entry == EntryDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ValidateAmount rejects non-positive amounts before any state is touched.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return xerrors.ErrInvalidAmount
	}
	return nil
}
