package common

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1.000",
		15000:   "15.000",
		250000:  "250.000",
		1005007: "1.005.007",
		-15000:  "-15.000",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(15000); got != "Rp 15.000" {
		t.Errorf("unexpected %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 10, 14, 2, 30, 0, 0, time.UTC)

	if got := FormatDate(ts, time.FixedZone("WIB", 7*60*60)); got != "14-10-2026 09:30:00" {
		t.Errorf("unexpected %q", got)
	}
	if got := FormatDate(ts, time.UTC); got != "14-10-2026 02:30:00" {
		t.Errorf("unexpected %q", got)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{9*time.Minute + 5*time.Second, "9m 5s"},
		{59 * time.Second, "0m 59s"},
		{1500 * time.Millisecond, "0m 1s"},
		{-time.Second, "0m 0s"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.in); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
