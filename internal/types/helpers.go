package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	ierr "github.com/flexprice/payments/internal/errors"
)

// ToNillableString returns a pointer to the string if not empty, nil otherwise
func ToNillableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToNillableTime returns a pointer to the time if not zero, nil otherwise
func ToNillableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// FromNillableString returns the string value or empty string if nil
func FromNillableString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FromNillableTime returns the time value or zero time if nil
func FromNillableTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ParseProviderTime parses a provider timestamp. Lemon Squeezy sends
// ISO-8601 strings, some fields arrive without sub-second precision.
func ParseProviderTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, ierr.NewError("invalid timestamp").
		WithHint("Timestamp must be ISO-8601").
		WithReportableDetails(map[string]any{"value": raw}).
		Mark(ierr.ErrValidation)
}

// FromEpoch converts a unix timestamp in seconds into UTC time. Stripe sends
// all timestamps as epoch seconds.
func FromEpoch(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FlexID unmarshals a JSON value that providers send interchangeably as a
// number or a string (product ids, variant ids, customer ids) into a string.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// Int64 returns the numeric value of the id, or 0 when it is not numeric.
func (f FlexID) Int64() int64 {
	v, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
