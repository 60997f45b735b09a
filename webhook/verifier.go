package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks payment-webhook signatures against a shared secret.
// Stateless and safe for concurrent use.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a [Verifier] over the processor's shared secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify reports whether providedSignature is the hex-encoded HMAC-SHA256 of
// rawBody under the shared secret. The comparison is constant-time, so the
// verdict latency leaks nothing about how many leading characters matched.
func (v *Verifier) Verify(rawBody []byte, providedSignature string) bool {
	if len(v.secret) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(providedSignature))
}
