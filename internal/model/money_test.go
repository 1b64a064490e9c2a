package model

import (
	"testing"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"whole number", "99.00", 9900},
		{"with cents", "123.45", 12345},
		{"zero", "0.00", 0},
		{"empty string", "", 0},
		{"large value", "1234567.89", 123456789},
		{"no decimals", "100", 10000},
		{"one decimal", "99.9", 9990},
		{"small value", "0.01", 1},
		{"invalid string", "abc", 0},
		{"negative (unusual)", "-10.00", -1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCents(tt.input)
			if got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{"whole dollars", 9900, "99.00"},
		{"with cents", 7497, "74.97"},
		{"zero", 0, "0.00"},
		{"single cent", 1, "0.01"},
		{"negative", -1050, "-10.50"},
		{"negative under a dollar", -50, "-0.50"},
		{"large value", 123456789, "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCents(tt.input)
			if got != tt.want {
				t.Errorf("FormatCents(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseFormatRoundTrip verifies the two directions agree for amounts the
// service actually sends.
func TestParseFormatRoundTrip(t *testing.T) {
	for _, amount := range []int64{0, 1, 99, 100, 7497, 9900, 123456789} {
		if got := ParseCents(FormatCents(amount)); got != amount {
			t.Errorf("ParseCents(FormatCents(%d)) = %d", amount, got)
		}
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   float64
		want   int64
	}{
		{"tax on 74.97 at 8%", 7497, 0.08, 600},
		{"tax on 49.99 at 8%", 4999, 0.08, 400},
		{"ten percent discount", 7497, 0.10, 750},
		{"zero amount", 0, 0.08, 0},
		{"zero rate", 7497, 0, 0},
		{"rounds half up", 50, 0.05, 3}, // 2.5 → 3 (round half away from zero)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundCents(tt.amount, tt.rate)
			if got != tt.want {
				t.Errorf("RoundCents(%d, %v) = %d, want %d", tt.amount, tt.rate, got, tt.want)
			}
		})
	}
}
