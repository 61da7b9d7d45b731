package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"finance-service/pkg/xerrors"
)

type ReceivableStatus string

const (
	StatusUnpaid   ReceivableStatus = "unpaid"
	StatusPartial  ReceivableStatus = "partial"
	StatusPaid     ReceivableStatus = "paid"
	StatusRejected ReceivableStatus = "rejected"
)

// ReceivableClass selects the numbering scope for receipt numbers.
type ReceivableClass string

const (
	ClassCollection ReceivableClass = "collection"
	ClassReceipt    ReceivableClass = "receipt"
	ClassPayment    ReceivableClass = "payment"
)

type PaymentType string

const (
	PaymentOnline PaymentType = "online"
	PaymentCash   PaymentType = "cash"
)

// Receivable is the business-level invoice, independent of the ledger. The
// Fixed/Installment pair is a tagged union: exactly one side is set, selected
// by the constructor used. Status only moves forward, except an explicit
// Reject from any non-terminal state; Paid and Rejected are terminal.
type Receivable struct {
	ID            string           `json:"id"`
	Class         ReceivableClass  `json:"class"`
	ReceiptNumber string           `json:"receipt_number"` // unique
	PayerID       string           `json:"payer_id"`
	PayerName     string           `json:"payer_name"`
	Description   string           `json:"description"`
	Status        ReceivableStatus `json:"status"`
	RejectReason  *string          `json:"reject_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	Fixed       *FixedTerms       `json:"fixed,omitempty"`
	Installment *InstallmentTerms `json:"installment,omitempty"`
}

// FixedTerms: a single payment settles the full amount and transitions the
// receivable straight from Unpaid to Paid.
type FixedTerms struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentType   *PaymentType    `json:"payment_type,omitempty"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
	AccountID     *string         `json:"account_id,omitempty"`
	TransactionID *string         `json:"transaction_id,omitempty"`
}

// InstallmentTerms accumulates partial payments until paid >= total.
type InstallmentTerms struct {
	TotalAmount decimal.Decimal      `json:"total_amount"`
	PaidAmount  decimal.Decimal      `json:"paid_amount"`
	Payments    []InstallmentPayment `json:"payments"`
}

// InstallmentPayment is one paid line of an installment receivable. Each line
// carries its own receipt number and the ledger posting that banked it.
type InstallmentPayment struct {
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	ReceiptNumber string          `json:"receipt_number"`
	TransactionID string          `json:"transaction_id"`
}

func NewFixedReceivable(id string, class ReceivableClass, receiptNumber, payerID, payerName, description string, amount decimal.Decimal) (*Receivable, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Receivable{
		ID:            id,
		Class:         class,
		ReceiptNumber: receiptNumber,
		PayerID:       payerID,
		PayerName:     payerName,
		Description:   description,
		Status:        StatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
		Fixed:         &FixedTerms{Amount: amount},
	}, nil
}

func NewInstallmentReceivable(id string, class ReceivableClass, receiptNumber, payerID, payerName, description string, totalAmount decimal.Decimal) (*Receivable, error) {
	if err := ValidateAmount(totalAmount); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Receivable{
		ID:            id,
		Class:         class,
		ReceiptNumber: receiptNumber,
		PayerID:       payerID,
		PayerName:     payerName,
		Description:   description,
		Status:        StatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
		Installment:   &InstallmentTerms{TotalAmount: totalAmount, PaidAmount: decimal.Zero},
	}, nil
}

func (r *Receivable) IsTerminal() bool {
	return r.Status == StatusPaid || r.Status == StatusRejected
}

func (r *Receivable) IsFixed() bool { return r.Fixed != nil }

// Remaining returns the unpaid portion.
func (r *Receivable) Remaining() decimal.Decimal {
	if r.Fixed != nil {
		if r.Status == StatusPaid {
			return decimal.Zero
		}
		return r.Fixed.Amount
	}
	return r.Installment.TotalAmount.Sub(r.Installment.PaidAmount)
}

// MarkPaid settles a fixed receivable with a single payment, stamping the
// payment date, payment type and the ledger posting that banked it.
func (r *Receivable) MarkPaid(paymentType PaymentType, accountID, transactionID string, at time.Time) error {
	if r.Fixed == nil {
		return xerrors.ErrInvalidRequest
	}
	if r.IsTerminal() {
		return xerrors.ErrReceivableTerminal
	}

	r.Fixed.PaymentType = &paymentType
	r.Fixed.PaymentDate = &at
	r.Fixed.AccountID = &accountID
	r.Fixed.TransactionID = &transactionID
	r.Status = StatusPaid
	r.UpdatedAt = at
	return nil
}

// AddInstallmentPayment appends a paid line and recomputes the status. The
// amount must not overshoot the remaining balance: clamping or rejecting an
// overshoot is the caller's decision, not silently absorbed here.
func (r *Receivable) AddInstallmentPayment(p InstallmentPayment) error {
	if r.Installment == nil {
		return xerrors.ErrInvalidRequest
	}
	if r.IsTerminal() {
		return xerrors.ErrReceivableTerminal
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}

	newPaid := r.Installment.PaidAmount.Add(p.Amount)
	if newPaid.GreaterThan(r.Installment.TotalAmount) {
		return xerrors.ErrOverpayment
	}

	r.Installment.Payments = append(r.Installment.Payments, p)
	r.Installment.PaidAmount = newPaid

	if newPaid.GreaterThanOrEqual(r.Installment.TotalAmount) {
		r.Status = StatusPaid
	} else {
		r.Status = StatusPartial
	}
	r.UpdatedAt = p.Date
	return nil
}

// Reject moves any non-terminal receivable to Rejected. Reversing linked
// ledger postings is the usecase's responsibility and must happen in the same
// unit of work, so the two records never diverge.
func (r *Receivable) Reject(reason string) error {
	if reason == "" {
		return xerrors.ErrRejectReasonMissing
	}
	if r.IsTerminal() {
		return xerrors.ErrReceivableTerminal
	}

	r.RejectReason = &reason
	r.Status = StatusRejected
	r.UpdatedAt = time.Now()
	return nil
}

// LinkedTransactionIDs returns every ledger posting linked to this receivable,
// in creation order.
func (r *Receivable) LinkedTransactionIDs() []string {
	if r.Fixed != nil {
		if r.Fixed.TransactionID != nil {
			return []string{*r.Fixed.TransactionID}
		}
		return nil
	}
	ids := make([]string, 0, len(r.Installment.Payments))
	for _, p := range r.Installment.Payments {
		if p.TransactionID != "" {
			ids = append(ids, p.TransactionID)
		}
	}
	return ids
}
