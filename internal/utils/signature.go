package utils // package utils provides helper functions for signatures, credentials and tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload computes the hex-encoded HMAC-SHA256 of the payload under
// the given secret. It is the signing half of the payment provider's
// scheme and is used by tests and by outbound integrations.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a hex-encoded HMAC-SHA256 signature against the
// payload. hmac.Equal performs a constant-time comparison, so a forged
// signature cannot be refined byte by byte through timing differences.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// HashPayload returns the SHA-256 hex digest of a payload. Stored with
// each payment event row for audit purposes.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
