package journal

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestParser_MixedValidAndStale(t *testing.T) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	raw := "1 sample 1.0\n" + now + " sample 2.0\n3 sample 3.0"

	var rejects Rejects
	out := Parser{Rejects: &rejects}.Parse(raw)

	if len(out) != 1 {
		t.Fatalf("valid records=%d want 1", len(out))
	}
	if out[0].Value != 2.0 || out[0].Name != "sample" {
		t.Fatalf("record=%+v", out[0])
	}
	lines := rejects.Lines()
	if len(lines) != 2 {
		t.Fatalf("rejected=%d want 2", len(lines))
	}
	if lines[0] != "1 sample 1.0" || lines[1] != "3 sample 3.0" {
		t.Fatalf("rejected lines out of order: %q", lines)
	}
}

func TestParser_FieldCount(t *testing.T) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	tests := []struct {
		name string
		line string
	}{
		{"two_fields", now + " lonely"},
		{"four_fields", now + " a 1 extra"},
		{"double_space", now + "  a 1"},
		{"leading_space", " " + now + " a 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rejects Rejects
			out := Parser{Rejects: &rejects}.Parse(tc.line + "\n")
			if len(out) != 0 {
				t.Fatalf("records=%d want 0", len(out))
			}
			if got := rejects.Lines(); len(got) != 1 || got[0] != tc.line {
				t.Fatalf("rejected=%q want [%q]", got, tc.line)
			}
		})
	}
}

func TestParser_ValueValidation(t *testing.T) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	tests := []struct {
		name      string
		value     string
		wantValue float64
		rejected  bool
	}{
		{"plain", "1.5", 1.5, false},
		{"negative", "-2", -2, false},
		{"zero", "0", 0, false},
		{"negative_zero_folds", "-0", 0, false},
		{"scientific", "1e3", 1000, false},
		{"nan", "NaN", 0, true},
		{"inf", "+Inf", 0, true},
		{"not_numeric", "fast", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rejects Rejects
			out := Parser{Rejects: &rejects}.Parse(now + " s " + tc.value + "\n")
			if tc.rejected {
				if len(out) != 0 || rejects.Len() != 1 {
					t.Fatalf("records=%d rejected=%d want 0/1", len(out), rejects.Len())
				}
				return
			}
			if len(out) != 1 || rejects.Len() != 0 {
				t.Fatalf("records=%d rejected=%d want 1/0", len(out), rejects.Len())
			}
			if out[0].Value != tc.wantValue {
				t.Fatalf("value=%v want %v", out[0].Value, tc.wantValue)
			}
			if tc.name == "negative_zero_folds" && strconv.FormatFloat(out[0].Value, 'f', -1, 64) != "0" {
				t.Fatalf("negative zero leaked: %q", strconv.FormatFloat(out[0].Value, 'f', -1, 64))
			}
		})
	}
}

func TestParser_StaleWindow(t *testing.T) {
	fresh := time.Now().Add(-30 * time.Minute).Unix()
	stale := time.Now().Add(-3 * time.Hour).Unix()
	raw := fmt.Sprintf("%d a 1\n%d b 2\n", fresh, stale)

	var rejects Rejects
	out := Parser{Rejects: &rejects}.Parse(raw)
	if len(out) != 1 || out[0].Name != "a" {
		t.Fatalf("records=%+v want only a", out)
	}
	if rejects.Len() != 1 {
		t.Fatalf("rejected=%d want 1", rejects.Len())
	}

	// A custom window admits the older sample.
	out = Parser{StaleAfter: 4 * time.Hour}.Parse(raw)
	if len(out) != 2 {
		t.Fatalf("records=%d want 2 with widened window", len(out))
	}
}

func TestParser_NoSinkDropsSilently(t *testing.T) {
	out := Parser{}.Parse("garbage line\n")
	if len(out) != 0 {
		t.Fatalf("records=%d want 0", len(out))
	}
}

func TestParser_SkipsEmptyLines(t *testing.T) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	raw := "\n\n" + now + " a 1\n\n" + now + " b 2\n\n"
	var rejects Rejects
	out := Parser{Rejects: &rejects}.Parse(raw)
	if len(out) != 2 || rejects.Len() != 0 {
		t.Fatalf("records=%d rejected=%d want 2/0", len(out), rejects.Len())
	}
}

func TestParser_InstanceStamped(t *testing.T) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	out := Parser{Instance: "host-1"}.Parse(now + " a 1\n")
	if len(out) != 1 || out[0].Instance != "host-1" {
		t.Fatalf("records=%+v want instance host-1", out)
	}
}

func TestParser_OrderPreserved(t *testing.T) {
	now := time.Now().Unix()
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "%d s%d %d\n", now, i, i)
	}
	out := Parser{}.Parse(sb.String())
	if len(out) != 20 {
		t.Fatalf("records=%d want 20", len(out))
	}
	for i, rec := range out {
		if rec.Name != fmt.Sprintf("s%d", i) {
			t.Fatalf("record %d is %q, order not preserved", i, rec.Name)
		}
	}
}
