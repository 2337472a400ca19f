package wire

import (
	"encoding/binary"
)

// Varint markers. A first byte up to SingleByteMax is the value itself;
// the markers select a payload of fixed width in the configured byte order.
const (
	SingleByteMax  = 250
	U16Marker      = 251
	U32Marker      = 252
	U64Marker      = 253
	U128Marker     = 254
	ReservedMarker = 255
)

// MaxVarintLen is the longest possible varint: marker plus a 16-byte payload.
const MaxVarintLen = 17

// NativeIsLittle reports whether the host stores integers least significant
// byte first.
func NativeIsLittle() bool {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	return b[0] == 1
}

// PutUint128 writes the 128-bit value hi:lo into b[:16].
func PutUint128(order binary.ByteOrder, b []byte, hi, lo uint64) {
	if order == binary.ByteOrder(binary.BigEndian) {
		binary.BigEndian.PutUint64(b[0:8], hi)
		binary.BigEndian.PutUint64(b[8:16], lo)
		return
	}
	binary.LittleEndian.PutUint64(b[0:8], lo)
	binary.LittleEndian.PutUint64(b[8:16], hi)
}

// Uint128 reads a 128-bit value from b[:16].
func Uint128(order binary.ByteOrder, b []byte) (hi, lo uint64) {
	if order == binary.ByteOrder(binary.BigEndian) {
		return binary.BigEndian.Uint64(b[0:8]), binary.BigEndian.Uint64(b[8:16])
	}
	return binary.LittleEndian.Uint64(b[8:16]), binary.LittleEndian.Uint64(b[0:8])
}

// ZigZag64 maps n ≥ 0 to 2n and n < 0 to -2n-1.
func ZigZag64(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// UnZigZag64 inverts ZigZag64.
func UnZigZag64(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// ZigZag128 is ZigZag64 over a two's complement 128-bit value hi:lo.
func ZigZag128(hi int64, lo uint64) (uint64, uint64) {
	sign := uint64(hi >> 63)
	shiftedHi := uint64(hi)<<1 | lo>>63
	shiftedLo := lo << 1
	return shiftedHi ^ sign, shiftedLo ^ sign
}

// UnZigZag128 inverts ZigZag128.
func UnZigZag128(hi, lo uint64) (int64, uint64) {
	mask := -(lo & 1)
	shiftedHi := hi >> 1
	shiftedLo := lo>>1 | hi<<63
	return int64(shiftedHi ^ mask), shiftedLo ^ mask
}

// VarintLen returns the encoded length of hi:lo.
func VarintLen(hi, lo uint64) int {
	switch {
	case hi != 0:
		return 17
	case lo <= SingleByteMax:
		return 1
	case lo <= 0xFFFF:
		return 3
	case lo <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// PutVarint encodes hi:lo into b using the smallest marker that fits and
// returns the number of bytes used. b must hold at least MaxVarintLen bytes.
func PutVarint(order binary.ByteOrder, b []byte, hi, lo uint64) int {
	switch VarintLen(hi, lo) {
	case 1:
		b[0] = byte(lo)
		return 1
	case 3:
		b[0] = U16Marker
		order.PutUint16(b[1:3], uint16(lo))
		return 3
	case 5:
		b[0] = U32Marker
		order.PutUint32(b[1:5], uint32(lo))
		return 5
	case 9:
		b[0] = U64Marker
		order.PutUint64(b[1:9], lo)
		return 9
	default:
		b[0] = U128Marker
		PutUint128(order, b[1:17], hi, lo)
		return 17
	}
}

// VarintPayloadLen returns the payload width selected by a marker byte, 0
// for a single-byte value, or -1 for the reserved marker.
func VarintPayloadLen(marker byte) int {
	switch marker {
	case U16Marker:
		return 2
	case U32Marker:
		return 4
	case U64Marker:
		return 8
	case U128Marker:
		return 16
	case ReservedMarker:
		return -1
	default:
		return 0
	}
}

// VarintPayload decodes a payload of the width chosen by marker.
func VarintPayload(order binary.ByteOrder, marker byte, p []byte) (hi, lo uint64) {
	switch marker {
	case U16Marker:
		return 0, uint64(order.Uint16(p))
	case U32Marker:
		return 0, uint64(order.Uint32(p))
	case U64Marker:
		return 0, order.Uint64(p)
	case U128Marker:
		return Uint128(order, p)
	default:
		return 0, uint64(marker)
	}
}
