package bincode

import (
	"fmt"
	"math/big"
)

// Uint128 is an unsigned 128-bit integer split into two 64-bit halves.
type Uint128 struct {
	Hi, Lo uint64
}

// U128 returns the Uint128 holding v.
func U128(v uint64) Uint128 { return Uint128{Lo: v} }

// Big returns u as a math/big integer.
func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string { return u.Big().String() }

// Int128 is a two's complement signed 128-bit integer. Hi carries the sign.
type Int128 struct {
	Hi int64
	Lo uint64
}

// I128 returns the Int128 holding v, sign-extended.
func I128(v int64) Int128 { return Int128{Hi: v >> 63, Lo: uint64(v)} }

// Big returns i as a math/big integer.
func (i Int128) Big() *big.Int {
	b := big.NewInt(i.Hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(i.Lo))
}

func (i Int128) String() string { return i.Big().String() }

// Char is a Unicode scalar value. A plain rune is an int32 to the
// reflection encoder; Char selects the char wire shape instead.
type Char rune

func (c Char) String() string { return string(rune(c)) }

// Unit is the empty value. It occupies zero bytes on the wire.
type Unit struct{}

// Pair is one entry of an ordered Map.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Map is a map that keeps its entries in insertion order on the wire.
// Duplicate keys are written and read back as they are.
type Map[K, V any] []Pair[K, V]

// Put appends an entry.
func (m *Map[K, V]) Put(k K, v V) {
	*m = append(*m, Pair[K, V]{Key: k, Value: v})
}

func (m Map[K, V]) MarshalBincode(e *Encoder) error {
	return e.Map(len(m), func(i int) error {
		if err := e.Encode(m[i].Key); err != nil {
			return err
		}
		return e.Encode(m[i].Value)
	})
}

func (m *Map[K, V]) UnmarshalBincode(d *Decoder) error {
	return d.Map(func(n int) error {
		if n == 0 {
			*m = nil
			return nil
		}
		out := make(Map[K, V], 0, prealloc(n))
		for i := 0; i < n; i++ {
			var p Pair[K, V]
			if err := d.Decode(&p.Key); err != nil {
				return err
			}
			if err := d.Decode(&p.Value); err != nil {
				return err
			}
			out = append(out, p)
		}
		*m = out
		return nil
	})
}

func (m Map[K, V]) String() string {
	return fmt.Sprintf("%v", []Pair[K, V](m))
}

// maxPrealloc caps the capacity reserved up front for a decoded
// collection; the rest grows as elements actually arrive.
const maxPrealloc = 1024

func prealloc(n int) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return n
}
