package lemonsqueezy

import (
	"testing"

	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"order_created"}}`)
	secret := "whsec_test"

	signature := Sign(body, secret)
	require.NotEmpty(t, signature)

	assert.NoError(t, VerifySignature(body, signature, secret))
}

func TestVerifySignatureRejectsMismatch(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"order_created"}}`)

	err := VerifySignature(body, Sign(body, "other-secret"), "whsec_test")
	require.Error(t, err)
	assert.True(t, ierr.IsPermissionDenied(err))

	err = VerifySignature([]byte("tampered"), Sign(body, "whsec_test"), "whsec_test")
	require.Error(t, err)
	assert.True(t, ierr.IsPermissionDenied(err))
}

func TestVerifySignatureRejectsMissingHeader(t *testing.T) {
	err := VerifySignature([]byte("{}"), "", "whsec_test")
	require.Error(t, err)
	assert.True(t, ierr.IsPermissionDenied(err))
}
