package errors

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder accumulates context on an error before it crosses a package
// boundary. It is not itself an error; every chain must end with Mark, which
// attaches the sentinel the Is* helpers and HTTPStatusFromErr match on.
type ErrorBuilder struct {
	err error
}

// NewError opens a chain from an internal message. Callers outside the
// service see hints, never the message itself.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError opens a chain wrapping an upstream error, keeping its cause
// chain intact for Is checks.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithHint sets the message surfaced on HTTP error responses.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is WithHint with formatting.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches a structured detail map, JSON-encoded into
// a safe detail so the HTTP error handler can surface it without exposing
// the raw error chain. A map that fails to encode is dropped.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, "__json__:%s", errors.Safe(string(marshaled)))
	return b
}

// Mark stamps the sentinel and closes the chain.
func (b *ErrorBuilder) Mark(sentinel error) error {
	return errors.Mark(b.err, sentinel)
}
