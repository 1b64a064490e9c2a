package model

import (
	"fmt"
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (major units) to cents (int64).
// The cart service returns all amounts as decimal strings (e.g. "74.97").
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// FormatCents renders cents as a decimal string in major units.
// Examples: 9900 → "99.00", 7497 → "74.97", -50 → "-0.50"
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// RoundCents applies a fractional rate to a cents amount and rounds to the
// nearest cent. Used for tax and percentage discounts so rounding happens
// exactly once per derivation.
func RoundCents(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}
