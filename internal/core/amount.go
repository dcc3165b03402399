// Package core holds the ledger domain types and the lenient numeric
// coercion rules shared by every storage backend.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts user- or store-supplied numeric text into an amount in
// the smallest currency unit. Malformed or negative input coerces to 0 rather
// than failing; thousands separators and surrounding whitespace are tolerated.
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Stores occasionally hand back decimal-formatted numbers ("1200.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		v = int64(f + 0.5)
	}
	if v < 0 {
		return 0
	}
	return v
}

// ParseDay coerces day text into [1, 31]; malformed input becomes 1.
func ParseDay(s string) int {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || d < 1 {
		return 1
	}
	if d > 31 {
		return 31
	}
	return d
}

// FormatAmount renders an amount with thousands separators for display.
// Storage always holds the plain integer form.
func FormatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
