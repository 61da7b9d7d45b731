package sequence

import (
	"fmt"
	"strconv"

	"finance-service/pkg/xerrors"
)

// Next computes the successor of a prefixed reference number. The prefix (which
// may itself contain digits, e.g. "K2-") is preserved unchanged; only the
// trailing run of digits is incremented, re-padded to its original width so
// "KA-0099" becomes "KA-0100" and "RA-9999" grows to "RA-10000".
//
// Next is pure: persisting the issued number exactly once is the caller's job
// and must happen in the same unit of work as the document that consumes it.
func Next(last string) (string, error) {
	i := len(last)
	for i > 0 && last[i-1] >= '0' && last[i-1] <= '9' {
		i--
	}
	if i == len(last) {
		return "", xerrors.ErrInvalidNumberFormat
	}

	prefix, digits := last[:i], last[i:]
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		// Trailing digit runs longer than uint64 are not issued by this system.
		return "", xerrors.ErrInvalidNumberFormat
	}

	return fmt.Sprintf("%s%0*d", prefix, len(digits), n+1), nil
}
