package journal

import (
	"math"
	"strconv"
	"time"
)

// InvalidEpoch is the sentinel returned for unparseable timestamp fields.
// It precedes every staleness window, so the validator rejects the line.
const InvalidEpoch = int64(math.MinInt64)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp converts a journal timestamp field to unix seconds.
//
// A digits-only field of exactly 10 characters is taken as unix seconds;
// any other digits-only width is taken as milliseconds and floor-divided by
// 1000. A 10-digit millisecond value is therefore misclassified. That is a
// compatibility quirk of the wire format, not a bug: downstream consumers
// depend on the exact rule, so it must not be "fixed" here.
//
// Non-numeric fields are parsed as date strings (RFC3339 first, then naive
// local-less layouts interpreted as UTC). An empty field means now;
// anything unparseable yields InvalidEpoch.
func NormalizeTimestamp(field string, now time.Time) int64 {
	if field == "" {
		return now.Unix()
	}
	if isDigits(field) {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return InvalidEpoch
		}
		if len(field) == 10 {
			return n
		}
		return floorDiv(n, 1000)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, field, time.UTC); err == nil {
			return t.Unix()
		}
	}
	return InvalidEpoch
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func floorDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && (n < 0) != (d < 0) {
		q--
	}
	return q
}
