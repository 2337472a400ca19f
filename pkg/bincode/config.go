package bincode

import (
	"encoding/binary"
	"fmt"

	"github.com/jredrado/bincode2/internal/wire"
)

// Endian selects the byte order of multi-byte numbers.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
	// NativeEndian is resolved to LittleEndian or BigEndian when the Config
	// is built; a Config never reports NativeEndian.
	NativeEndian
)

func (e Endian) String() string {
	switch e {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	case NativeEndian:
		return "native"
	default:
		return fmt.Sprintf("Endian(%d)", uint8(e))
	}
}

// IntEncoding selects how integers wider than 8 bits are written.
type IntEncoding uint8

const (
	// FixedIntEncoding writes every integer at its natural width.
	FixedIntEncoding IntEncoding = iota
	// VarintEncoding writes integers as a tag byte plus an optional payload,
	// with signed values zig-zag mapped first.
	VarintEncoding
)

func (e IntEncoding) String() string {
	switch e {
	case FixedIntEncoding:
		return "fixed"
	case VarintEncoding:
		return "varint"
	default:
		return fmt.Sprintf("IntEncoding(%d)", uint8(e))
	}
}

// LengthWidth is the integer width used for length prefixes.
type LengthWidth uint8

const (
	LengthU64 LengthWidth = iota
	LengthU32
	LengthU16
	LengthU8
)

// Max returns the largest length representable at this width.
func (w LengthWidth) Max() uint64 {
	switch w {
	case LengthU8:
		return 1<<8 - 1
	case LengthU16:
		return 1<<16 - 1
	case LengthU32:
		return 1<<32 - 1
	default:
		return 1<<64 - 1
	}
}

func (w LengthWidth) bits() int {
	switch w {
	case LengthU8:
		return 8
	case LengthU16:
		return 16
	case LengthU32:
		return 32
	default:
		return 64
	}
}

func (w LengthWidth) String() string {
	return fmt.Sprintf("u%d", w.bits())
}

// DefaultMaxDepth is the composite nesting depth allowed when no other
// value is configured.
const DefaultMaxDepth = 128

// Config is the immutable option set for one or more encode/decode
// sessions, built with DefaultConfig or NewConfig. The zero value behaves
// like DefaultConfig. A Config may be shared freely between goroutines.
//
// Encoding and decoding with different Configs silently yields wrong
// values: the format carries no self-description.
type Config struct {
	endian   Endian
	order    binary.ByteOrder
	ints     IntEncoding
	limit    uint64
	bounded  bool
	maxDepth int
	strLen   LengthWidth
	arrLen   LengthWidth
}

// Option adjusts a Config under construction.
type Option func(*Config) error

// DefaultConfig returns little-endian, fixed-width integers, no size
// limit, DefaultMaxDepth and u64 length prefixes.
func DefaultConfig() Config {
	return Config{
		endian:   LittleEndian,
		order:    binary.LittleEndian,
		ints:     FixedIntEncoding,
		maxDepth: DefaultMaxDepth,
		strLen:   LengthU64,
		arrLen:   LengthU64,
	}
}

// NewConfig starts from DefaultConfig and applies opts in order.
func NewConfig(opts ...Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// MustConfig is NewConfig for option sets known to be valid.
func MustConfig(opts ...Option) Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// WithEndian selects the byte order.
func WithEndian(e Endian) Option {
	return func(c *Config) error {
		switch e {
		case LittleEndian:
			c.endian, c.order = LittleEndian, binary.LittleEndian
		case BigEndian:
			c.endian, c.order = BigEndian, binary.BigEndian
		case NativeEndian:
			if wire.NativeIsLittle() {
				c.endian, c.order = LittleEndian, binary.LittleEndian
			} else {
				c.endian, c.order = BigEndian, binary.BigEndian
			}
		default:
			return fmt.Errorf("bincode: unknown endian %d", uint8(e))
		}
		return nil
	}
}

// WithLittleEndian selects little-endian byte order. This is the default.
func WithLittleEndian() Option { return WithEndian(LittleEndian) }

// WithBigEndian selects big-endian byte order.
func WithBigEndian() Option { return WithEndian(BigEndian) }

// WithNativeEndian selects the byte order of the host.
func WithNativeEndian() Option { return WithEndian(NativeEndian) }

// WithIntEncoding selects the integer encoding strategy.
func WithIntEncoding(e IntEncoding) Option {
	return func(c *Config) error {
		if e != FixedIntEncoding && e != VarintEncoding {
			return fmt.Errorf("bincode: unknown integer encoding %d", uint8(e))
		}
		c.ints = e
		return nil
	}
}

// WithFixedIntEncoding writes integers at their natural width.
func WithFixedIntEncoding() Option { return WithIntEncoding(FixedIntEncoding) }

// WithVarintEncoding writes integers with the variable-length scheme.
func WithVarintEncoding() Option { return WithIntEncoding(VarintEncoding) }

// WithLimit caps the bytes a decode may claim through length prefixes, and
// the total bytes an encode may produce.
func WithLimit(n uint64) Option {
	return func(c *Config) error {
		c.limit, c.bounded = n, true
		return nil
	}
}

// WithNoLimit removes the size ceiling. This is the default.
func WithNoLimit() Option {
	return func(c *Config) error {
		c.limit, c.bounded = 0, false
		return nil
	}
}

// WithMaxDepth sets the maximum composite nesting depth accepted by decode.
func WithMaxDepth(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("bincode: max depth must be at least 1, got %d", n)
		}
		c.maxDepth = n
		return nil
	}
}

// WithStringLength sets the width of string and byte-sequence length prefixes.
func WithStringLength(w LengthWidth) Option {
	return func(c *Config) error {
		if w > LengthU8 {
			return fmt.Errorf("bincode: unknown length width %d", uint8(w))
		}
		c.strLen = w
		return nil
	}
}

// WithArrayLength sets the width of sequence and map length prefixes.
func WithArrayLength(w LengthWidth) Option {
	return func(c *Config) error {
		if w > LengthU8 {
			return fmt.Errorf("bincode: unknown length width %d", uint8(w))
		}
		c.arrLen = w
		return nil
	}
}

// Endian returns the resolved byte order; never NativeEndian.
func (c Config) Endian() Endian { return c.endian }

// ByteOrder returns the resolved byte order as a binary.ByteOrder.
func (c Config) ByteOrder() binary.ByteOrder { return c.order }

// IntEncoding returns the integer encoding strategy.
func (c Config) IntEncoding() IntEncoding { return c.ints }

// Limit returns the size ceiling and whether one is set.
func (c Config) Limit() (uint64, bool) { return c.limit, c.bounded }

// MaxDepth returns the maximum composite nesting depth.
func (c Config) MaxDepth() int { return c.maxDepth }

// StringLength returns the width of string and byte-sequence prefixes.
func (c Config) StringLength() LengthWidth { return c.strLen }

// ArrayLength returns the width of sequence and map prefixes.
func (c Config) ArrayLength() LengthWidth { return c.arrLen }

// orDefault maps the zero Config to DefaultConfig.
func (c Config) orDefault() Config {
	if c.order == nil {
		return DefaultConfig()
	}
	return c
}

func (c Config) String() string {
	limit := "none"
	if c.bounded {
		limit = fmt.Sprintf("%d", c.limit)
	}
	return fmt.Sprintf("endian=%s ints=%s limit=%s depth=%d strlen=%s arrlen=%s",
		c.endian, c.ints, limit, c.maxDepth, c.strLen, c.arrLen)
}
