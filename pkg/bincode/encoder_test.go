package bincode

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedLE  = DefaultConfig()
	fixedBE  = MustConfig(WithBigEndian())
	varintLE = MustConfig(WithVarintEncoding())
	varintBE = MustConfig(WithVarintEncoding(), WithBigEndian())
)

func TestEncodeVectors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		v    any
		want []byte
	}{
		{"u32 fixed little endian", fixedLE, uint32(300), []byte{44, 1, 0, 0}},
		{"u32 fixed big endian", fixedBE, uint32(300), []byte{0, 0, 1, 44}},
		{"u32 varint", varintLE, uint32(300), []byte{251, 44, 1}},
		{"u32 varint big endian", varintBE, uint32(300), []byte{251, 1, 44}},
		{"small varint", varintLE, uint64(7), []byte{7}},
		{"largest single byte varint", varintLE, uint16(250), []byte{250}},
		{"u8 is raw under varint", varintLE, uint8(255), []byte{255}},
		{"i8 is raw under varint", varintLE, int8(-1), []byte{0xff}},
		{"i32 zigzag minus one", varintLE, int32(-1), []byte{1}},
		{"i64 zigzag minus two", varintLE, int64(-2), []byte{3}},
		{"i16 fixed minus one", fixedLE, int16(-1), []byte{0xff, 0xff}},
		{"int is 64-bit", fixedLE, 1, []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"f32 ignores varint", varintLE, float32(1), []byte{0, 0, 0x80, 0x3f}},
		{"f64 big endian", fixedBE, float64(1), []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}},
		{"bool true", fixedLE, true, []byte{1}},
		{"bool false", fixedLE, false, []byte{0}},
		{"char", varintLE, Char('a'), []byte{97}},
		{"char fixed", fixedLE, Char('€'), []byte{0xac, 0x20, 0, 0}},
		{"u128 fixed", fixedLE, U128(1), append([]byte{1}, make([]byte, 15)...)},
		{"u128 varint", varintLE, Uint128{Hi: 1}, append([]byte{254}, append(make([]byte, 8), 1, 0, 0, 0, 0, 0, 0, 0)...)},
		{"i128 varint minus one", varintLE, I128(-1), []byte{1}},
		{"string fixed", fixedLE, "hi", []byte{2, 0, 0, 0, 0, 0, 0, 0, 'h', 'i'}},
		{"string varint", varintLE, "hi", []byte{2, 'h', 'i'}},
		{"bytes", varintLE, []byte{9, 8}, []byte{2, 9, 8}},
		{"none", varintLE, (*uint32)(nil), []byte{0}},
		{"some", varintLE, ptr(uint32(7)), []byte{1, 7}},
		{"unit", fixedLE, Unit{}, []byte{}},
		{"empty struct", fixedLE, struct{}{}, []byte{}},
		{"empty sequence", varintLE, []uint16{}, []byte{0}},
		{"tuple has no prefix", fixedLE, [3]uint8{1, 2, 3}, []byte{1, 2, 3}},
		{"sequence has prefix", fixedLE, []uint8{1, 2, 3}, []byte{3, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3}},
		{"go map sorted by key", varintLE, map[string]uint8{"b": 1, "a": 2}, []byte{2, 1, 'a', 2, 1, 'b', 1}},
		{"ordered map keeps insertion order", varintLE, Map[string, uint8]{{"b", 1}, {"a", 2}}, []byte{2, 1, 'b', 1, 1, 'a', 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.cfg, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			size, err := SerializedSize(tt.cfg, tt.v)
			require.NoError(t, err)
			assert.Equal(t, uint64(len(tt.want)), size)
		})
	}
}

func TestEncodeStructFields(t *testing.T) {
	type point struct {
		X, Y    int16
		label   string
		Comment string `bincode:"-"`
	}
	got, err := Marshal(fixedLE, point{X: 1, Y: -1, label: "x", Comment: "y"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0xff, 0xff}, got)
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		v    any
		kind error
	}{
		{"invalid utf8", fixedLE, string([]byte{0xff}), ErrInvalidUtf8Encoding},
		{"surrogate char", fixedLE, Char(0xD800), ErrInvalidCharEncoding},
		{"channel", fixedLE, make(chan int), ErrSequenceMustHaveLength},
		{"func", fixedLE, func() {}, ErrSequenceMustHaveLength},
		{"string too long for width", MustConfig(WithStringLength(LengthU8)), strings.Repeat("a", 256), ErrSizeTypeLimit},
		{"sequence too long for width", MustConfig(WithArrayLength(LengthU8)), make([]uint16, 256), ErrSizeTypeLimit},
		{"over limit", MustConfig(WithLimit(4)), "hello", ErrSizeLimit},
		{"complex", fixedLE, complex(1, 2), ErrCustom},
		{"nil", fixedLE, nil, ErrCustom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.cfg, tt.v)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestEncodeSizeTypeLimitValue(t *testing.T) {
	_, err := Marshal(MustConfig(WithStringLength(LengthU8)), strings.Repeat("a", 256))
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindSizeTypeLimit, e.Kind)
	assert.Equal(t, uint64(256), e.Value)
}

func TestEncodeNarrowLengths(t *testing.T) {
	cfg := MustConfig(WithStringLength(LengthU16), WithArrayLength(LengthU32))
	got, err := Marshal(cfg, []string{"ab"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 'a', 'b'}, got)

	cfg = MustConfig(WithStringLength(LengthU8), WithVarintEncoding())
	got, err = Marshal(cfg, strings.Repeat("a", 251))
	require.NoError(t, err)
	assert.Equal(t, byte(251), got[0], "u8 lengths are a raw byte even under varint")
	assert.Len(t, got, 252)
}

func TestMarshalToBoundedWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := MarshalTo(MustConfig(WithLimit(8)), &buf, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrSizeLimit)
	assert.Zero(t, buf.Len())

	require.NoError(t, MarshalTo(MustConfig(WithLimit(24)), &buf, []uint64{1, 2}))
	assert.Equal(t, 24, buf.Len())
}

type brokenSink struct{}

var errBrokenSink = errors.New("broken sink")

func (brokenSink) Write([]byte) (int, error) { return 0, errBrokenSink }

func TestEncodeSinkFailure(t *testing.T) {
	err := MarshalTo(fixedLE, brokenSink{}, uint32(1))
	assert.ErrorIs(t, err, ErrIo)
	assert.ErrorIs(t, err, errBrokenSink)
}

func TestEncoderSeqUnknownLength(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(fixedLE, &buf)
	err := e.Seq(-1, func(int) error { return nil })
	assert.ErrorIs(t, err, ErrSequenceMustHaveLength)
	assert.Zero(t, buf.Len())
}

func TestEncoderHandDriven(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(varintLE, &buf)
	require.NoError(t, e.Tuple(func() error {
		if err := e.EncodeU16(1); err != nil {
			return err
		}
		if err := e.EncodeF64(math.Inf(1)); err != nil {
			return err
		}
		return e.EncodeSome(func() error { return e.EncodeString("x") })
	}))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0xf0, 0x7f, 1, 1, 'x'}, buf.Bytes())
	assert.Equal(t, uint64(buf.Len()), e.BytesWritten())
}

func ptr[T any](v T) *T { return &v }
