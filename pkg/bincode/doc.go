// Package bincode implements a compact, non-self-describing binary format.
//
// A value is written as the plain concatenation of its primitives: no
// header, no field names, no type tags beyond option and enum
// discriminants. Both sides must agree on the shape of the value and on the
// Config used; the bytes alone say neither.
//
// Integers wider than a byte are written either at their natural width or
// with a variable-length scheme where values up to 250 take one byte and
// the markers 251 to 254 announce a 2, 4, 8 or 16 byte payload. Signed
// integers are zig-zag mapped under the variable-length scheme. Floats are
// always written at full width.
//
// Decoding treats its input as untrusted: every declared length is charged
// against an optional byte budget before it is read, and composite nesting
// is bounded by a maximum depth.
//
// Plain Go values are handled by reflection. Types that need a different
// wire shape, enums in particular, implement Marshaler and Unmarshaler:
//
//	func (c Command) MarshalBincode(e *bincode.Encoder) error {
//		switch c.Op {
//		case OpPing:
//			return e.Variant(0, nil)
//		case OpSet:
//			return e.Variant(1, func() error { return e.EncodeString(c.Key) })
//		}
//		return bincode.Errorf("unknown op %d", c.Op)
//	}
package bincode
