package bincode

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/jredrado/bincode2/internal/wire"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	charType        = reflect.TypeOf(Char(0))
	uint128Type     = reflect.TypeOf(Uint128{})
	int128Type      = reflect.TypeOf(Int128{})
)

// fieldPlans caches the wire-visible fields of each struct type. Types
// are never evicted; the set of struct types in a program is fixed.
var fieldPlans = xsync.NewMapOf[reflect.Type, []int]()

// structFields returns the indexes of the exported fields of t that are
// not tagged `bincode:"-"`, in declaration order.
func structFields(t reflect.Type) []int {
	plan, _ := fieldPlans.LoadOrCompute(t, func() []int {
		var idx []int
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("bincode") == "-" {
				continue
			}
			idx = append(idx, i)
		}
		return idx
	})
	return plan
}

func unsupported(t reflect.Type) error {
	return Errorf("unsupported type %s", t)
}

// Encode writes v. Types implementing Marshaler write themselves; other
// values are walked by reflection:
//
//	bool, integers, floats      primitives; int and uint are 64-bit
//	Char                        char
//	Uint128, Int128             128-bit integers
//	string, []byte              length-prefixed bytes
//	[N]T                        tuple, N is not written
//	[]T                         sequence
//	map[K]V                     map, entries sorted by encoded key
//	*T                          option, nil is none
//	struct                      exported fields in declaration order
//
// Channels and functions fail with SequenceMustHaveLength.
func (e *Encoder) Encode(v any) error {
	if v == nil {
		return Errorf("cannot encode nil")
	}
	return e.encodeValue(reflect.ValueOf(v))
}

func (e *Encoder) encodeValue(rv reflect.Value) error {
	t := rv.Type()
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if t.Implements(marshalerType) {
			return rv.Interface().(Marshaler).MarshalBincode(e)
		}
		if reflect.PointerTo(t).Implements(marshalerType) {
			if !rv.CanAddr() {
				p := reflect.New(t)
				p.Elem().Set(rv)
				rv = p.Elem()
			}
			return rv.Addr().Interface().(Marshaler).MarshalBincode(e)
		}
	}

	switch t {
	case charType:
		return e.EncodeChar(rune(rv.Int()))
	case uint128Type:
		return e.EncodeU128(rv.Interface().(Uint128))
	case int128Type:
		return e.EncodeI128(rv.Interface().(Int128))
	}

	switch t.Kind() {
	case reflect.Bool:
		return e.EncodeBool(rv.Bool())
	case reflect.Int8:
		return e.EncodeI8(int8(rv.Int()))
	case reflect.Int16:
		return e.EncodeI16(int16(rv.Int()))
	case reflect.Int32:
		return e.EncodeI32(int32(rv.Int()))
	case reflect.Int, reflect.Int64:
		return e.EncodeI64(rv.Int())
	case reflect.Uint8:
		return e.EncodeU8(uint8(rv.Uint()))
	case reflect.Uint16:
		return e.EncodeU16(uint16(rv.Uint()))
	case reflect.Uint32:
		return e.EncodeU32(uint32(rv.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return e.EncodeU64(rv.Uint())
	case reflect.Float32:
		return e.EncodeF32(float32(rv.Float()))
	case reflect.Float64:
		return e.EncodeF64(rv.Float())
	case reflect.String:
		return e.EncodeString(rv.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return e.EncodeBytes(rv.Bytes())
		}
		return e.Seq(rv.Len(), func(i int) error {
			return e.encodeValue(rv.Index(i))
		})
	case reflect.Array:
		return e.Tuple(func() error {
			for i := 0; i < rv.Len(); i++ {
				if err := e.encodeValue(rv.Index(i)); err != nil {
					return err
				}
			}
			return nil
		})
	case reflect.Map:
		return e.encodeMap(rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return e.EncodeNone()
		}
		return e.EncodeSome(func() error { return e.encodeValue(rv.Elem()) })
	case reflect.Interface:
		if rv.IsNil() {
			return Errorf("cannot encode nil %s", t)
		}
		return e.encodeValue(rv.Elem())
	case reflect.Struct:
		return e.Struct(func() error {
			for _, i := range structFields(t) {
				if err := e.encodeValue(rv.Field(i)); err != nil {
					return err
				}
			}
			return nil
		})
	case reflect.Chan, reflect.Func:
		return &Error{Kind: KindSequenceMustHaveLength}
	default:
		return unsupported(t)
	}
}

// encodeMap writes a Go map with its entries ordered by the bytes of their
// encoded keys, so that equal maps always produce equal output.
func (e *Encoder) encodeMap(rv reflect.Value) error {
	type entry struct {
		key []byte
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	var buf bytes.Buffer
	keys := &Encoder{cfg: e.cfg, w: wire.NewWriter(&buf)}
	iter := rv.MapRange()
	for iter.Next() {
		buf.Reset()
		if err := keys.encodeValue(iter.Key()); err != nil {
			return err
		}
		entries = append(entries, entry{key: bytes.Clone(buf.Bytes()), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return e.Map(len(entries), func(i int) error {
		if err := e.write(entries[i].key); err != nil {
			return err
		}
		return e.encodeValue(entries[i].val)
	})
}

// Decode reads into v, which must be a non-nil pointer. Types implementing
// Unmarshaler read themselves; other values follow the rules of
// Encoder.Encode. An interface target fails with
// DeserializeAnyNotSupported.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return Errorf("decode target must be a non-nil pointer, got %T", v)
	}
	return d.decodeValue(rv.Elem())
}

func (d *Decoder) decodeValue(rv reflect.Value) error {
	t := rv.Type()
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface &&
		reflect.PointerTo(t).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalBincode(d)
	}

	switch t {
	case charType:
		r, err := d.DecodeChar()
		if err != nil {
			return err
		}
		rv.SetInt(int64(r))
		return nil
	case uint128Type:
		u, err := d.DecodeU128()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(u))
		return nil
	case int128Type:
		i, err := d.DecodeI128()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(i))
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := d.DecodeBool()
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Int64:
		_, lo, err := d.decodeInt(intBits(t))
		if err != nil {
			return err
		}
		rv.SetInt(int64(lo))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		_, lo, err := d.decodeUint(intBits(t))
		if err != nil {
			return err
		}
		rv.SetUint(lo)
	case reflect.Float32:
		f, err := d.DecodeF32()
		if err != nil {
			return err
		}
		rv.SetFloat(float64(f))
	case reflect.Float64:
		f, err := d.DecodeF64()
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.String:
		s, err := d.DecodeString()
		if err != nil {
			return err
		}
		rv.SetString(s)
	case reflect.Slice:
		return d.decodeSlice(rv)
	case reflect.Array:
		return d.Tuple(func() error {
			for i := 0; i < rv.Len(); i++ {
				if err := d.decodeValue(rv.Index(i)); err != nil {
					return err
				}
			}
			return nil
		})
	case reflect.Map:
		return d.Map(func(n int) error {
			if n == 0 {
				rv.Set(reflect.Zero(t))
				return nil
			}
			m := reflect.MakeMapWithSize(t, prealloc(n))
			for i := 0; i < n; i++ {
				k := reflect.New(t.Key()).Elem()
				if err := d.decodeValue(k); err != nil {
					return err
				}
				v := reflect.New(t.Elem()).Elem()
				if err := d.decodeValue(v); err != nil {
					return err
				}
				m.SetMapIndex(k, v)
			}
			rv.Set(m)
			return nil
		})
	case reflect.Pointer:
		some, err := d.DecodeOption()
		if err != nil {
			return err
		}
		if !some {
			rv.Set(reflect.Zero(t))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(t.Elem()))
		}
		return d.decodeValue(rv.Elem())
	case reflect.Interface:
		return d.DecodeAny()
	case reflect.Struct:
		return d.Struct(func() error {
			for _, i := range structFields(t) {
				if err := d.decodeValue(rv.Field(i)); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return unsupported(t)
	}
	return nil
}

func (d *Decoder) decodeSlice(rv reflect.Value) error {
	t := rv.Type()
	if t.Elem().Kind() == reflect.Uint8 {
		b, err := d.DecodeBytes()
		if err != nil {
			return err
		}
		if len(b) == 0 {
			rv.Set(reflect.Zero(t))
			return nil
		}
		rv.SetBytes(b)
		return nil
	}
	return d.Seq(func(n int) error {
		if n == 0 {
			rv.Set(reflect.Zero(t))
			return nil
		}
		s := reflect.MakeSlice(t, 0, prealloc(n))
		zero := reflect.Zero(t.Elem())
		for i := 0; i < n; i++ {
			s = reflect.Append(s, zero)
			if err := d.decodeValue(s.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(s)
		return nil
	})
}

func intBits(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return 64
	default:
		return t.Bits()
	}
}
