package stripe

import (
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the Stripe signature scheme (t=...,v1=...).
const SignatureHeader = "Stripe-Signature"

// VerifySignature checks the webhook signature against the raw body.
func VerifySignature(body []byte, signature string, secret string) error {
	if signature == "" {
		return ierr.NewError("missing webhook signature").
			WithHint("Invalid signature.").
			Mark(ierr.ErrPermissionDenied)
	}
	if err := webhook.ValidatePayload(body, signature, secret); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid signature.").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}
