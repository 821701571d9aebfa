// Package numeric coerces the brokerage API's string-typed numeric fields
// into Go numbers. KIS sends every value as a string, sometimes with
// thousands separators or unit suffixes, sometimes empty or "-". The policy
// throughout the bot is tolerant: strip noise, parse what remains, and fall
// back to zero rather than fail a whole ingest over one bad field.
package numeric

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	noise  = regexp.MustCompile(`[^0-9.\-]`)
	number = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// clean strips everything but digits, dots and minus signs, then extracts
// the first well-formed number. Returns "" when nothing numeric remains.
func clean(s string) string {
	s = noise.ReplaceAllString(strings.TrimSpace(s), "")
	return number.FindString(s)
}

// Int converts s to an int, zero on any failure. Fractional input is
// truncated toward zero.
func Int(s string) int { return int(Int64(s)) }

// Int64 converts s to an int64, zero on any failure.
func Int64(s string) int64 {
	c := clean(s)
	if c == "" {
		return 0
	}
	if i, err := strconv.ParseInt(c, 10, 64); err == nil {
		return i
	}
	// "123.45" style input: truncate.
	if f, err := strconv.ParseFloat(c, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Float converts s to a float64, zero on any failure.
func Float(s string) float64 {
	c := clean(s)
	if c == "" {
		return 0
	}
	f, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0
	}
	return f
}

// Decimal converts s to a decimal, decimal.Zero on any failure.
func Decimal(s string) decimal.Decimal {
	c := clean(s)
	if c == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(c)
	if err != nil {
		return decimal.Zero
	}
	return d
}
