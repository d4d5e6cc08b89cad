package lemonsqueezy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	ierr "github.com/flexprice/payments/internal/errors"
)

// SignatureHeader carries the hex HMAC of the raw body.
const SignatureHeader = "X-Signature"

// VerifySignature checks the webhook HMAC-SHA256 signature against the raw
// body. Comparison is constant time.
func VerifySignature(body []byte, signature string, secret string) error {
	if signature == "" {
		return ierr.NewError("missing webhook signature").
			WithHint("Invalid signature.").
			Mark(ierr.ErrPermissionDenied)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ierr.NewError("webhook signature mismatch").
			WithHint("Invalid signature.").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

// Sign computes the signature a webhook sender would attach for the given
// body, used by tests and the replay tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
