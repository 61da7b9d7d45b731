package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"finance-service/pkg/xerrors"
)

// SignPayload computes the hex HMAC-SHA256 of a raw payload with the shared
// webhook secret. Used when sending outbound webhooks and by tests to build
// valid gateway signatures.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the HMAC over the raw payload and compares it to
// the signature supplied by the gateway. A missing or mismatched signature
// fails closed with ErrSignatureInvalid; nothing downstream may mutate state
// before this check passes.
func VerifySignature(payload []byte, signature, secret string) error {
	if signature == "" {
		return xerrors.ErrSignatureInvalid
	}
	expected := SignPayload(payload, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return xerrors.ErrSignatureInvalid
	}
	return nil
}
