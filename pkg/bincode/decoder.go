package bincode

import (
	"io"
	"math"
	"unicode/utf8"

	"github.com/jredrado/bincode2/internal/wire"
)

// Unmarshaler is implemented by types that read themselves back from a
// Decoder, accepting primitives in the order their Marshaler wrote them.
type Unmarshaler interface {
	UnmarshalBincode(d *Decoder) error
}

// Decoder reads values from a forward-only source using the rules of one
// Config. Every declared length is charged against the size limit and every
// composite against the depth limit before any of its bytes are read.
// A Decoder is not safe for concurrent use, and after an error its source
// position is undefined.
type Decoder struct {
	cfg    Config
	r      *wire.Reader
	limits *LimitTracker
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(cfg Config, r io.Reader) *Decoder {
	return newDecoder(cfg, wire.NewReader(r))
}

func newDecoder(cfg Config, r *wire.Reader) *Decoder {
	cfg = cfg.orDefault()
	return &Decoder{cfg: cfg, r: r, limits: NewLimitTracker(cfg)}
}

// Config returns the Config the Decoder was created with.
func (d *Decoder) Config() Config { return d.cfg }

// Limits exposes the tracker for this decode.
func (d *Decoder) Limits() *LimitTracker { return d.limits }

// BytesRead returns the number of bytes consumed so far.
func (d *Decoder) BytesRead() uint64 { return d.r.BytesRead() }

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, ioError(err)
	}
	return b, nil
}

func (d *Decoder) readSmall(n int) ([]byte, error) {
	b, err := d.r.ReadSmall(n)
	if err != nil {
		return nil, ioError(err)
	}
	return b, nil
}

// decodeUint reads an unsigned value of the given bit width through the
// configured integer codec.
func (d *Decoder) decodeUint(bits int) (hi, lo uint64, err error) {
	if bits == 8 {
		b, err := d.readByte()
		return 0, uint64(b), err
	}
	if d.cfg.ints == FixedIntEncoding {
		return d.decodeFixed(bits)
	}
	marker, err := d.readByte()
	if err != nil {
		return 0, 0, err
	}
	width := wire.VarintPayloadLen(marker)
	if width < 0 {
		return 0, 0, &Error{Kind: KindInvalidTagEncoding, Value: uint64(marker)}
	}
	var payload []byte
	if width > 0 {
		if payload, err = d.readSmall(width); err != nil {
			return 0, 0, err
		}
	}
	hi, lo = wire.VarintPayload(d.cfg.order, marker, payload)
	if bits < 128 && (hi != 0 || lo>>bits != 0) {
		return 0, 0, Errorf("varint value does not fit in u%d", bits)
	}
	return hi, lo, nil
}

func (d *Decoder) decodeFixed(bits int) (hi, lo uint64, err error) {
	b, err := d.readSmall(bits / 8)
	if err != nil {
		return 0, 0, err
	}
	switch bits {
	case 16:
		return 0, uint64(d.cfg.order.Uint16(b)), nil
	case 32:
		return 0, uint64(d.cfg.order.Uint32(b)), nil
	case 64:
		return 0, d.cfg.order.Uint64(b), nil
	default:
		hi, lo = wire.Uint128(d.cfg.order, b)
		return hi, lo, nil
	}
}

// decodeInt reads a signed value and returns it sign-extended to 128 bits.
func (d *Decoder) decodeInt(bits int) (int64, uint64, error) {
	hi, lo, err := d.decodeUint(bits)
	if err != nil {
		return 0, 0, err
	}
	if bits == 128 {
		if d.cfg.ints == VarintEncoding {
			shi, slo := wire.UnZigZag128(hi, lo)
			return shi, slo, nil
		}
		return int64(hi), lo, nil
	}
	var v int64
	if bits != 8 && d.cfg.ints == VarintEncoding {
		v = wire.UnZigZag64(lo)
	} else {
		shift := 64 - bits
		v = int64(lo<<shift) >> shift
	}
	return v >> 63, uint64(v), nil
}

func (d *Decoder) decodeLen(w LengthWidth) (int, error) {
	_, n, err := d.decodeUint(w.bits())
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt {
		return 0, &Error{Kind: KindSizeLimit, Value: n}
	}
	return int(n), nil
}

// DecodeBool reads a bool byte, which must be 0 or 1.
func (d *Decoder) DecodeBool() (bool, error) {
	b, err := d.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &Error{Kind: KindInvalidBoolEncoding, Value: uint64(b)}
	}
}

func (d *Decoder) DecodeU8() (uint8, error) {
	_, lo, err := d.decodeUint(8)
	return uint8(lo), err
}

func (d *Decoder) DecodeU16() (uint16, error) {
	_, lo, err := d.decodeUint(16)
	return uint16(lo), err
}

func (d *Decoder) DecodeU32() (uint32, error) {
	_, lo, err := d.decodeUint(32)
	return uint32(lo), err
}

func (d *Decoder) DecodeU64() (uint64, error) {
	_, lo, err := d.decodeUint(64)
	return lo, err
}

func (d *Decoder) DecodeU128() (Uint128, error) {
	hi, lo, err := d.decodeUint(128)
	return Uint128{Hi: hi, Lo: lo}, err
}

func (d *Decoder) DecodeI8() (int8, error) {
	_, lo, err := d.decodeInt(8)
	return int8(lo), err
}

func (d *Decoder) DecodeI16() (int16, error) {
	_, lo, err := d.decodeInt(16)
	return int16(lo), err
}

func (d *Decoder) DecodeI32() (int32, error) {
	_, lo, err := d.decodeInt(32)
	return int32(lo), err
}

func (d *Decoder) DecodeI64() (int64, error) {
	_, lo, err := d.decodeInt(64)
	return int64(lo), err
}

func (d *Decoder) DecodeI128() (Int128, error) {
	hi, lo, err := d.decodeInt(128)
	return Int128{Hi: hi, Lo: lo}, err
}

func (d *Decoder) DecodeF32() (float32, error) {
	_, lo, err := d.decodeFixed(32)
	return math.Float32frombits(uint32(lo)), err
}

func (d *Decoder) DecodeF64() (float64, error) {
	_, lo, err := d.decodeFixed(64)
	return math.Float64frombits(lo), err
}

// DecodeChar reads a u32 scalar and checks that it is a Unicode scalar
// value.
func (d *Decoder) DecodeChar() (rune, error) {
	_, lo, err := d.decodeUint(32)
	if err != nil {
		return 0, err
	}
	r := rune(uint32(lo))
	if !utf8.ValidRune(r) {
		return 0, &Error{Kind: KindInvalidCharEncoding, Value: lo}
	}
	return r, nil
}

// DecodeBytes reads a length-prefixed byte sequence. The length is charged
// against the size limit before the payload is read.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	n, err := d.decodeLen(d.cfg.strLen)
	if err != nil {
		return nil, err
	}
	if err := d.limits.Reserve(uint64(n)); err != nil {
		return nil, err
	}
	b, err := d.r.ReadBytes(uint64(n))
	if err != nil {
		return nil, ioError(err)
	}
	return b, nil
}

// DecodeString reads a length-prefixed UTF-8 string.
func (d *Decoder) DecodeString() (string, error) {
	b, err := d.DecodeBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &Error{Kind: KindInvalidUtf8Encoding}
	}
	return string(b), nil
}

// DecodeOption reads an option tag and reports whether a payload follows.
func (d *Decoder) DecodeOption() (bool, error) {
	tag, err := d.readByte()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &Error{Kind: KindInvalidTagEncoding, Value: uint64(tag)}
	}
}

// DecodeUnit reads nothing.
func (d *Decoder) DecodeUnit() error { return nil }

// DecodeAny always fails: the format carries no type information, so a
// value can only be decoded into a known shape.
func (d *Decoder) DecodeAny() error {
	return &Error{Kind: KindDeserializeAnyNotSupported}
}

// enter is paired with a deferred leave by every composite.
func (d *Decoder) enter() error { return d.limits.Enter() }

func (d *Decoder) leave() { d.limits.Leave() }

// Seq reads a sequence length, charges it against the size limit and calls
// elems with it. elems must decode exactly n elements.
func (d *Decoder) Seq(elems func(n int) error) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	n, err := d.decodeLen(d.cfg.arrLen)
	if err != nil {
		return err
	}
	if err := d.limits.Reserve(uint64(n)); err != nil {
		return err
	}
	return elems(n)
}

// Map reads a map length and calls entries with it. entries must decode n
// key/value pairs in wire order.
func (d *Decoder) Map(entries func(n int) error) error {
	return d.Seq(entries)
}

// Tuple decodes an element run of statically known length.
func (d *Decoder) Tuple(fields func() error) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	return fields()
}

// Struct decodes fields in declaration order.
func (d *Decoder) Struct(fields func() error) error {
	return d.Tuple(fields)
}

// Variant reads a u32 variant index and passes it to payload. An index not
// below count fails with InvalidTagEncoding before payload is called.
func (d *Decoder) Variant(count uint32, payload func(index uint32) error) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	index, err := d.DecodeU32()
	if err != nil {
		return err
	}
	if index >= count {
		return &Error{Kind: KindInvalidTagEncoding, Value: uint64(index)}
	}
	return payload(index)
}
