// Package core holds the expense record model and the pure aggregation
// functions over ledger snapshots.
//
// This file contains amount parsing: ledger amounts are whole currency
// units, so user input is parsed as a decimal and half-up rounded to an
// integer before it is stored.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-entered decimal string to whole currency
// units with half-up rounding on the first decimal digit. Both dot
// (120.5) and comma (120,5) separators are accepted. Empty, negative,
// zero and non-numeric input all fail with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("500")    -> 500, nil
//	ParseAmount("120.4")  -> 120, nil
//	ParseAmount("120.5")  -> 121, nil
//	ParseAmount("0")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only bare positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if len(fracPart) > 0 && fracPart[0] >= '5' {
		units++
	}
	if units <= 0 {
		return 0, ErrInvalidAmount
	}
	return units, nil
}
