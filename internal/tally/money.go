package tally

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var maxMicros = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// FormatMicros renders a micro-dollar amount as dollars with six decimals.
func FormatMicros(micros uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(micros), -6).StringFixed(6)
}

// ParseDollars converts a plain decimal dollar string such as "150.25" into
// micro-dollars, rounding half-up at the sixth decimal. Signs, exponents and
// separators other than a single '.' are rejected.
func ParseDollars(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
		default:
			return 0, fmt.Errorf("non-numeric character %q in %q", r, s)
		}
	}
	if dots > 1 || s == "." {
		return 0, fmt.Errorf("malformed amount %q", s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	micros := d.Shift(6).Round(0)
	if micros.GreaterThan(maxMicros) {
		return 0, fmt.Errorf("amount %q overflows micro-dollar range", s)
	}
	return micros.BigInt().Uint64(), nil
}
