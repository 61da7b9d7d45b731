package domain

import "time"

// SequenceScope names one reference-number series.
type SequenceScope string

const (
	ScopeCollectionNumber SequenceScope = "collection_number"
	ScopeReceiptNumber    SequenceScope = "receipt_number"
	ScopePaymentNumber    SequenceScope = "payment_number"
)

// SequenceCounter is the persisted tail of a numbering series. LastNumber
// holds the full formatted reference ("KA-0100"); issuance is an atomic
// read-modify-write on this row inside the unit of work that also persists
// the document consuming the number.
type SequenceCounter struct {
	Scope      SequenceScope `json:"scope"`
	LastNumber string        `json:"last_number"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
