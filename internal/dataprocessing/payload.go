package dataprocessing

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// hexPrefix marks a fixture payload given as hex bytes rather than raw text
const hexPrefix = "0x"

// DecodePayload turns a fixture "result" string into raw reveal bytes.
// "0x"-prefixed strings are hex; anything else is taken verbatim.
func DecodePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.EqualFold(s[:2], hexPrefix) {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload %q: %w", s, err)
		}
		return b, nil
	}
	return []byte(s), nil
}

// EncodePayload renders reveal bytes the way DecodePayload reads them.
// Printable ASCII stays text; everything else becomes "0x" hex.
func EncodePayload(b []byte) string {
	text := string(b)
	if len(b) > 0 && isPrintable(b) && strings.TrimSpace(text) == text && !strings.HasPrefix(strings.ToLower(text), hexPrefix) {
		return text
	}
	return hexPrefix + hex.EncodeToString(b)
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c > unicode.MaxASCII || !unicode.IsPrint(rune(c)) {
			return false
		}
	}
	return true
}
