package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountBank AccountType = "bank"
	AccountCash AccountType = "cash"
)

func (t AccountType) Valid() bool {
	return t == AccountBank || t == AccountCash
}

// Account holds the current balance of one bank or cash account. The balance
// is derived state: it must always equal the signed sum of the account's
// transaction history, and is only ever mutated together with a Transaction
// inside the same unit of work.
type Account struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	Type          AccountType     `json:"type"`
	IsPrimary     bool            `json:"is_primary"` // at most one primary account
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type AccountFilter struct {
	Type      *AccountType
	IsPrimary *bool
}
