package util

import (
	"testing"
	"time"
)

func TestFormatMarketCap(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2_500_000_000, "2.50B"},
		{750_000_000, "750.00M"},
		{12_500, "12.50K"},
		{999, "999.00"},
		{0, "0.00"},
	}
	for _, c := range cases {
		if got := FormatMarketCap(c.in); got != c.want {
			t.Errorf("FormatMarketCap(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 3, 10, 9, 30, 0, 0, time.Local)
	b := time.Date(2025, 3, 10, 23, 59, 0, 0, time.Local)
	c := time.Date(2025, 3, 11, 0, 1, 0, 0, time.Local)

	if !SameDay(a, b) {
		t.Error("expected same day for same date, different hours")
	}
	if SameDay(b, c) {
		t.Error("expected different days across midnight")
	}
}
