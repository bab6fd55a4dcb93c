package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the payload signature on outbound deliveries.
const SignatureHeader = "X-Webhook-Signature"

// Sign returns the hex HMAC-SHA256 of payload under the merchant's
// secret. The payload bytes must be exactly the bytes POSTed, or the
// merchant-side verification will not match. An empty secret yields a
// well-defined (if worthless) signature rather than an error.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload under secret, in
// constant time. Provided for merchant-side and test use.
func Verify(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
