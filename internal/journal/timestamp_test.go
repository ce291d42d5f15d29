package journal

import (
	"testing"
	"time"
)

func TestNormalizeTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		field string
		want  int64
	}{
		{"ten_digit_seconds", "1420115696", 1420115696},
		{"thirteen_digit_millis", "1420115696789", 1420115696},
		{"short_digits_are_millis", "1", 0},
		{"nine_digit_millis", "999999999", 999999},
		{"eleven_digit_millis", "14201156967", 14201156},
		{"rfc3339", "2015-01-01T12:34:56Z", 1420115696},
		{"rfc3339_millis", "2015-01-01T12:34:56.789Z", 1420115696},
		{"naive_datetime_utc", "2015-01-01T12:34:56", 1420115696},
		{"date_only", "2015-01-01", 1420070400},
		{"empty_is_now", "", now.Unix()},
		{"garbage", "not-a-time", InvalidEpoch},
		{"mixed_digits", "12ab34", InvalidEpoch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTimestamp(tc.field, now); got != tc.want {
				t.Fatalf("NormalizeTimestamp(%q)=%d want %d", tc.field, got, tc.want)
			}
		})
	}
}

// A 10-digit count of milliseconds is indistinguishable from a 10-digit count
// of seconds on the wire; the 10-digit rule wins. Consumers depend on this.
func TestNormalizeTimestamp_TenDigitMillisMisclassified(t *testing.T) {
	now := time.Now()
	// 1000000000 ms after the epoch (1970-01-12) would be second 1000000.
	// The width rule reads it as second 1000000000 (2001-09-09) instead.
	if got := NormalizeTimestamp("1000000000", now); got != 1000000000 {
		t.Fatalf("10-digit field must be read as seconds, got %d", got)
	}
}
