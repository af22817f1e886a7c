// Package billing holds the pure invoice arithmetic: totals, payment
// status classification, earnings aggregation and the edit reducer. It
// has no database or transport dependencies so every rule here is
// testable in isolation.
package billing

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a user-entered money or quantity field to a
// float64. Blank, malformed or non-finite input is treated as zero
// rather than rejected, so a half-filled form still produces totals.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
