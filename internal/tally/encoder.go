package tally

import (
	"encoding/binary"
	"fmt"
)

// OutputSize is the width of the result buffer the host reads back.
const OutputSize = 16

// EncodePrice packs a price as an unsigned 128-bit little-endian integer.
// Prices never exceed 64 bits, so the upper eight bytes are always zero.
func EncodePrice(price uint64) [OutputSize]byte {
	var buf [OutputSize]byte
	binary.LittleEndian.PutUint64(buf[:8], price)
	return buf
}

// DecodePrice reverses EncodePrice. It fails on a wrong length and on values
// that do not fit in 64 bits.
func DecodePrice(buf []byte) (uint64, error) {
	if len(buf) != OutputSize {
		return 0, fmt.Errorf("expected %d bytes, got %d", OutputSize, len(buf))
	}
	if binary.LittleEndian.Uint64(buf[8:]) != 0 {
		return 0, errOverflow
	}
	return binary.LittleEndian.Uint64(buf[:8]), nil
}

var errOverflow = fmt.Errorf("value exceeds 64-bit range")
