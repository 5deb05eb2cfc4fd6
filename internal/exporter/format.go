package exporter

import (
	"strconv"

	"oracletally/internal/tally"
)

// formatFloat formats a float64 value with the given number of decimals
func formatFloat(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// formatInt formats an integer value
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatUint formats a micro-dollar amount as an integer
func formatUint(u uint64) string {
	return strconv.FormatUint(u, 10)
}

// formatPrice renders micro-dollars as dollars with six decimals
func formatPrice(micros uint64) string {
	return tally.FormatMicros(micros)
}

// formatBool formats a boolean value
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
