package bincode

import (
	"errors"
	"io"
	"math"
	"unicode/utf8"

	"github.com/jredrado/bincode2/internal/wire"
)

// Marshaler is implemented by types that write themselves through an
// Encoder. The calls must visit the same primitives in the same order every
// time for the same logical shape.
type Marshaler interface {
	MarshalBincode(e *Encoder) error
}

// Encoder writes values to a sink using the rules of one Config.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	cfg     Config
	w       *wire.Writer
	scratch [wire.MaxVarintLen]byte
}

// NewEncoder creates an Encoder writing to w. With a bounded Config the
// Encoder fails with a SizeLimit error instead of writing past the limit.
func NewEncoder(cfg Config, w io.Writer) *Encoder {
	cfg = cfg.orDefault()
	e := &Encoder{cfg: cfg}
	if limit, ok := cfg.Limit(); ok {
		e.w = wire.NewLimitedWriter(w, limit)
	} else {
		e.w = wire.NewWriter(w)
	}
	return e
}

// Config returns the Config the Encoder was created with.
func (e *Encoder) Config() Config { return e.cfg }

// BytesWritten returns the number of bytes written so far.
func (e *Encoder) BytesWritten() uint64 { return e.w.BytesWritten() }

func (e *Encoder) write(p []byte) error {
	if err := e.w.Write(p); err != nil {
		return e.fail(err)
	}
	return nil
}

func (e *Encoder) writeByte(b byte) error {
	e.scratch[0] = b
	return e.write(e.scratch[:1])
}

func (e *Encoder) fail(err error) error {
	if errors.Is(err, wire.ErrLimit) {
		limit, _ := e.cfg.Limit()
		return &Error{Kind: KindSizeLimit, Value: limit}
	}
	return ioError(err)
}

// encodeUint writes the unsigned value hi:lo of the given bit width
// through the configured integer codec. Single bytes are always raw.
func (e *Encoder) encodeUint(bits int, hi, lo uint64) error {
	if bits == 8 {
		return e.writeByte(byte(lo))
	}
	if e.cfg.ints == VarintEncoding {
		n := wire.PutVarint(e.cfg.order, e.scratch[:], hi, lo)
		return e.write(e.scratch[:n])
	}
	return e.encodeFixed(bits, hi, lo)
}

func (e *Encoder) encodeFixed(bits int, hi, lo uint64) error {
	b := e.scratch[:bits/8]
	switch bits {
	case 16:
		e.cfg.order.PutUint16(b, uint16(lo))
	case 32:
		e.cfg.order.PutUint32(b, uint32(lo))
	case 64:
		e.cfg.order.PutUint64(b, lo)
	case 128:
		wire.PutUint128(e.cfg.order, b, hi, lo)
	}
	return e.write(b)
}

// encodeInt writes a signed value; hi is the sign extension for widths
// below 128 bits.
func (e *Encoder) encodeInt(bits int, hi int64, lo uint64) error {
	if bits == 8 || e.cfg.ints == FixedIntEncoding {
		return e.encodeUint(bits, uint64(hi), lo)
	}
	if bits == 128 {
		zhi, zlo := wire.ZigZag128(hi, lo)
		return e.encodeUint(bits, zhi, zlo)
	}
	return e.encodeUint(bits, 0, wire.ZigZag64(int64(lo)))
}

func (e *Encoder) encodeLen(n uint64, w LengthWidth) error {
	if n > w.Max() {
		return &Error{Kind: KindSizeTypeLimit, Value: n}
	}
	return e.encodeUint(w.bits(), 0, n)
}

// EncodeBool writes 1 for true and 0 for false.
func (e *Encoder) EncodeBool(v bool) error {
	if v {
		return e.writeByte(1)
	}
	return e.writeByte(0)
}

func (e *Encoder) EncodeU8(v uint8) error   { return e.encodeUint(8, 0, uint64(v)) }
func (e *Encoder) EncodeU16(v uint16) error { return e.encodeUint(16, 0, uint64(v)) }
func (e *Encoder) EncodeU32(v uint32) error { return e.encodeUint(32, 0, uint64(v)) }
func (e *Encoder) EncodeU64(v uint64) error { return e.encodeUint(64, 0, v) }

func (e *Encoder) EncodeU128(v Uint128) error { return e.encodeUint(128, v.Hi, v.Lo) }

func (e *Encoder) EncodeI8(v int8) error   { return e.encodeInt(8, int64(v)>>63, uint64(int64(v))) }
func (e *Encoder) EncodeI16(v int16) error { return e.encodeInt(16, int64(v)>>63, uint64(int64(v))) }
func (e *Encoder) EncodeI32(v int32) error { return e.encodeInt(32, int64(v)>>63, uint64(int64(v))) }
func (e *Encoder) EncodeI64(v int64) error { return e.encodeInt(64, v>>63, uint64(v)) }

func (e *Encoder) EncodeI128(v Int128) error { return e.encodeInt(128, v.Hi, v.Lo) }

// EncodeF32 writes the IEEE 754 bits at full width regardless of the
// integer encoding.
func (e *Encoder) EncodeF32(v float32) error {
	return e.encodeFixed(32, 0, uint64(math.Float32bits(v)))
}

// EncodeF64 writes the IEEE 754 bits at full width regardless of the
// integer encoding.
func (e *Encoder) EncodeF64(v float64) error {
	return e.encodeFixed(64, 0, math.Float64bits(v))
}

// EncodeChar writes r as a u32 scalar value.
func (e *Encoder) EncodeChar(r rune) error {
	if !utf8.ValidRune(r) {
		return &Error{Kind: KindInvalidCharEncoding, Value: uint64(uint32(r))}
	}
	return e.encodeUint(32, 0, uint64(r))
}

// EncodeString writes the byte length and then the bytes of s, which must
// be valid UTF-8.
func (e *Encoder) EncodeString(s string) error {
	if !utf8.ValidString(s) {
		return &Error{Kind: KindInvalidUtf8Encoding}
	}
	if err := e.encodeLen(uint64(len(s)), e.cfg.strLen); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// EncodeBytes writes the length and then the raw bytes of b.
func (e *Encoder) EncodeBytes(b []byte) error {
	if err := e.encodeLen(uint64(len(b)), e.cfg.strLen); err != nil {
		return err
	}
	return e.write(b)
}

// EncodeNone writes an absent option.
func (e *Encoder) EncodeNone() error { return e.writeByte(0) }

// EncodeSome writes a present option whose payload is produced by payload.
func (e *Encoder) EncodeSome(payload func() error) error {
	if err := e.writeByte(1); err != nil {
		return err
	}
	return payload()
}

// EncodeUnit writes nothing.
func (e *Encoder) EncodeUnit() error { return nil }

// Seq writes a length-prefixed sequence of n elements, calling elem once
// per index in order. A negative n means the length is not known and fails
// with SequenceMustHaveLength.
func (e *Encoder) Seq(n int, elem func(i int) error) error {
	if n < 0 {
		return &Error{Kind: KindSequenceMustHaveLength}
	}
	if err := e.encodeLen(uint64(n), e.cfg.arrLen); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := elem(i); err != nil {
			return err
		}
	}
	return nil
}

// Map writes a length-prefixed run of n entries. entry must write one key
// followed by one value.
func (e *Encoder) Map(n int, entry func(i int) error) error {
	return e.Seq(n, entry)
}

// Tuple writes the elements produced by fields with no length prefix.
func (e *Encoder) Tuple(fields func() error) error { return fields() }

// Struct writes the fields produced by fields in declaration order. Field
// names never reach the wire.
func (e *Encoder) Struct(fields func() error) error { return fields() }

// Variant writes the u32 variant index and then the payload. A nil payload
// is a unit variant.
func (e *Encoder) Variant(index uint32, payload func() error) error {
	if err := e.EncodeU32(index); err != nil {
		return err
	}
	if payload == nil {
		return nil
	}
	return payload()
}
