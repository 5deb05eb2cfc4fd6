package tally

import (
	"errors"
	"fmt"
	"strconv"

	apperrors "oracletally/internal/errors"
	"oracletally/pkg/contracts/domain"
)

// ParseReveals decodes host records into reveals. Records the host excluded
// (non-zero exit code or outside consensus) are carried as invalid without a
// diagnostic; decode and validation failures produce one diagnostic each.
func ParseReveals(records []domain.RevealRecord, params Params) ([]Reveal, []*apperrors.AppError) {
	reveals := make([]Reveal, len(records))
	var diags []*apperrors.AppError

	for i, rec := range records {
		reveals[i] = Reveal{SourceIndex: i, RawBytes: rec.Result}
		if !rec.Decodable() {
			continue
		}

		price, err := decodePayload(rec.Result)
		if err != nil {
			if errors.Is(err, errOverflow) {
				diags = append(diags, apperrors.NewValidationError("price exceeds 64-bit range").
					WithContext("reveal_index", i))
				continue
			}
			diags = append(diags, apperrors.NewParsingError("undecodable reveal payload", err).
				WithContext("reveal_index", i).
				WithContext("length", len(rec.Result)))
			continue
		}
		reveals[i].ParsedPrice = price

		if err := ValidatePrice(price, params); err != nil {
			diags = append(diags, apperrors.NewValidationError(err.Error()).
				WithContext("reveal_index", i).
				WithContext("price", price))
			continue
		}
		reveals[i].Valid = true
		reveals[i].RoundNumber = hasRoundNumberBias(price)
	}

	return reveals, diags
}

// decodePayload accepts the canonical 16-byte little-endian integer or an
// ASCII decimal dollar amount. A 16-byte payload that is entirely printable
// ASCII is read as text; an encoded price always has zero upper bytes, so the
// two shapes cannot collide.
func decodePayload(payload []byte) (uint64, error) {
	if len(payload) == 0 {
		return 0, fmt.Errorf("empty payload")
	}
	if len(payload) == OutputSize && !isPrintableASCII(payload) {
		return DecodePrice(payload)
	}
	return ParseDollars(string(payload))
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// ValidatePrice rejects prices outside the configured bounds and digit
// patterns that indicate a fabricated value.
func ValidatePrice(price uint64, params Params) error {
	if price < params.MinPrice || price > params.MaxPrice {
		return fmt.Errorf("price %d outside [%d, %d]", price, params.MinPrice, params.MaxPrice)
	}

	digits := strconv.FormatUint(price, 10)
	if len(digits) > 2 && uniqueDigits(digits) < 2 {
		return fmt.Errorf("price %d has insufficient digit diversity", price)
	}
	if isDigitRun(digits) {
		return fmt.Errorf("price %d is a sequential digit run", price)
	}
	return nil
}

func uniqueDigits(digits string) int {
	var seen [10]bool
	count := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i] - '0'
		if !seen[d] {
			seen[d] = true
			count++
		}
	}
	return count
}

// isDigitRun reports strictly ascending or descending runs such as 123456 or 98765.
func isDigitRun(digits string) bool {
	if len(digits) <= 3 {
		return false
	}
	ascending, descending := true, true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[i-1]+1 {
			ascending = false
		}
		if digits[i]+1 != digits[i-1] {
			descending = false
		}
	}
	return ascending || descending
}

// hasRoundNumberBias reports prices whose trailing zeros exceed a third of their digits.
func hasRoundNumberBias(price uint64) bool {
	digits := strconv.FormatUint(price, 10)
	zeros := 0
	for i := len(digits) - 1; i >= 0 && digits[i] == '0'; i-- {
		zeros++
	}
	return zeros > len(digits)/3
}

// validPriceSet collects valid reveals in submission order.
func validPriceSet(reveals []Reveal) PriceSet {
	set := PriceSet{}
	for _, r := range reveals {
		if r.Valid {
			set.Prices = append(set.Prices, r.ParsedPrice)
			set.Sources = append(set.Sources, r.SourceIndex)
		}
	}
	return set
}
