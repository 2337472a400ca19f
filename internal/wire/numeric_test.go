package wire

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigZag64(t *testing.T) {
	tests := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZigZag64(tt.in), "ZigZag64(%d)", tt.in)
		assert.Equal(t, tt.in, UnZigZag64(tt.want), "UnZigZag64(%d)", tt.want)
	}
}

func TestZigZag128(t *testing.T) {
	tests := []struct {
		name           string
		hi             int64
		lo             uint64
		wantHi, wantLo uint64
	}{
		{"zero", 0, 0, 0, 0},
		{"minus one", -1, math.MaxUint64, 0, 1},
		{"one", 0, 1, 0, 2},
		{"carry into high word", 0, 1 << 63, 1, 0},
		{"min", math.MinInt64, 0, math.MaxUint64, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hi, lo := ZigZag128(tt.hi, tt.lo)
			assert.Equal(t, tt.wantHi, hi)
			assert.Equal(t, tt.wantLo, lo)

			backHi, backLo := UnZigZag128(hi, lo)
			assert.Equal(t, tt.hi, backHi)
			assert.Equal(t, tt.lo, backLo)
		})
	}
}

func TestPutVarint(t *testing.T) {
	tests := []struct {
		name   string
		order  binary.ByteOrder
		hi, lo uint64
		want   []byte
	}{
		{"single byte", binary.LittleEndian, 0, 7, []byte{7}},
		{"largest single byte", binary.LittleEndian, 0, 250, []byte{250}},
		{"smallest u16", binary.LittleEndian, 0, 251, []byte{251, 251, 0}},
		{"300 little endian", binary.LittleEndian, 0, 300, []byte{251, 44, 1}},
		{"300 big endian", binary.BigEndian, 0, 300, []byte{251, 1, 44}},
		{"u32", binary.LittleEndian, 0, 1 << 16, []byte{252, 0, 0, 1, 0}},
		{"u64", binary.LittleEndian, 0, 1 << 32, []byte{253, 0, 0, 0, 0, 1, 0, 0, 0}},
		{"u128", binary.LittleEndian, 1, 0, []byte{254, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"u128 big endian", binary.BigEndian, 1, 2, []byte{254, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf [MaxVarintLen]byte
			n := PutVarint(tt.order, buf[:], tt.hi, tt.lo)
			require.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, buf[:n])
			assert.Equal(t, n, VarintLen(tt.hi, tt.lo))

			width := VarintPayloadLen(buf[0])
			hi, lo := VarintPayload(tt.order, buf[0], buf[1:1+width])
			assert.Equal(t, tt.hi, hi)
			assert.Equal(t, tt.lo, lo)
		})
	}
}

func TestVarintPayloadLenReserved(t *testing.T) {
	assert.Equal(t, -1, VarintPayloadLen(ReservedMarker))
	assert.Equal(t, 0, VarintPayloadLen(0))
	assert.Equal(t, 0, VarintPayloadLen(SingleByteMax))
}

func TestUint128ByteOrder(t *testing.T) {
	var b [16]byte
	PutUint128(binary.LittleEndian, b[:], 0x0102030405060708, 0x090a0b0c0d0e0f10)
	assert.Equal(t, byte(0x10), b[0])
	assert.Equal(t, byte(0x01), b[15])
	hi, lo := Uint128(binary.LittleEndian, b[:])
	assert.Equal(t, uint64(0x0102030405060708), hi)
	assert.Equal(t, uint64(0x090a0b0c0d0e0f10), lo)

	PutUint128(binary.BigEndian, b[:], 0x0102030405060708, 0x090a0b0c0d0e0f10)
	assert.Equal(t, byte(0x01), b[0])
	assert.Equal(t, byte(0x10), b[15])
	hi, lo = Uint128(binary.BigEndian, b[:])
	assert.Equal(t, uint64(0x0102030405060708), hi)
	assert.Equal(t, uint64(0x090a0b0c0d0e0f10), lo)
}
