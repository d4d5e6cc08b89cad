package errors

import (
	"net/http"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderMarksSentinel(t *testing.T) {
	err := NewError("order payload missing required fields").
		WithHint("Provider payload omitted financial fields").
		Mark(ErrValidation)

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromErr(err))
}

func TestBuilderKeepsCauseChain(t *testing.T) {
	cause := NewError("row not found").Mark(ErrNotFound)
	err := WithError(cause).
		WithHintf("Subscription %s does not exist", "sub_1").
		Mark(ErrDatabase)

	assert.True(t, IsNotFound(err))
	assert.True(t, Is(err, ErrDatabase))
}

func TestBuilderHintSurfaces(t *testing.T) {
	err := NewError("no handler for event").
		WithHintf("Event %s has no handler", "order_created").
		Mark(ErrNotImplemented)

	hints := errors.GetAllHints(err)
	require.NotEmpty(t, hints)
	assert.Equal(t, "Event order_created has no handler", hints[0])
}

func TestBuilderReportableDetails(t *testing.T) {
	err := NewError("unsupported provider").
		WithReportableDetails(map[string]any{"provider": "paddle"}).
		Mark(ErrValidation)

	var payload string
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, detail := range sdp.SafeDetails {
			if strings.HasPrefix(detail, "__json__:") {
				payload = strings.TrimPrefix(detail, "__json__:")
			}
		}
	}
	require.NotEmpty(t, payload, "details must travel as a safe detail")
	assert.JSONEq(t, `{"provider": "paddle"}`, payload)
}
