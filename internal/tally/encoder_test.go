package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePrice(t *testing.T) {
	buf := EncodePrice(150_250_000)

	// 150250000 = 0x08F4A210
	assert.Equal(t, [OutputSize]byte{0x10, 0xA2, 0xF4, 0x08}, buf)

	price, err := DecodePrice(buf[:])
	require.NoError(t, err)
	assert.Equal(t, uint64(150_250_000), price)
}

func TestDecodePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected uint64
		wantErr  bool
	}{
		{name: "zero", input: make([]byte, 16), expected: 0},
		{name: "max uint64", input: append([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, make([]byte, 8)...), expected: ^uint64(0)},
		{name: "short", input: make([]byte, 8), wantErr: true},
		{name: "long", input: make([]byte, 17), wantErr: true},
		{name: "high half set", input: append(make([]byte, 8), 1, 0, 0, 0, 0, 0, 0, 0), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := DecodePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, price)
		})
	}
}

func TestFormatMicros(t *testing.T) {
	assert.Equal(t, "150.250000", FormatMicros(150_250_000))
	assert.Equal(t, "0.000001", FormatMicros(1))
	assert.Equal(t, "0.000000", FormatMicros(0))
	assert.Equal(t, "1000000.000000", FormatMicros(MaxPrice))
}

func TestParseDollars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected uint64
		wantErr  bool
	}{
		{name: "two decimals", input: "150.25", expected: 150_250_000},
		{name: "integer", input: "42", expected: 42_000_000},
		{name: "surrounding space", input: " 28.55\n", expected: 28_550_000},
		{name: "six decimals", input: "0.000001", expected: 1},
		{name: "rounds half up", input: "1.0000005", expected: 1_000_001},
		{name: "rounds down", input: "1.0000004", expected: 1_000_000},
		{name: "empty", input: "  ", wantErr: true},
		{name: "negative", input: "-1.00", wantErr: true},
		{name: "exponent", input: "1e6", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "lone dot", input: ".", wantErr: true},
		{name: "thousands separator", input: "1,000", wantErr: true},
		{name: "overflow", input: "99999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			micros, err := ParseDollars(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, micros)
		})
	}
}
