package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator issues ULID entity IDs and prefixed account numbers.
// ULIDs are 26 characters and lexicographically sortable by creation time,
// which keeps ledger listings in insertion order without a sequence column.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewID generates a ULID string.
// Example: 01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// NewAccountNumber generates a human-readable account number.
// Format: PREFIX-XXXXXX with ambiguous characters (0, O, I, 1) excluded.
// Example: BNK-7K3MPQ
func (g *IDGenerator) NewAccountNumber(prefix string) string {
	const charset = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}

	p := "ACC"
	if prefix != "" {
		p = strings.ToUpper(prefix)
	}
	return fmt.Sprintf("%s-%s", p, string(b))
}

// ValidateULID reports whether s is a well-formed ULID.
func ValidateULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	_, err := ulid.Parse(s)
	return err == nil
}
