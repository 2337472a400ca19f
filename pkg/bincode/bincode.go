package bincode

import (
	"bytes"
	"io"

	"github.com/jredrado/bincode2/internal/wire"
)

// SerializedSize returns the number of bytes Marshal would produce for v.
// With a bounded Config a value larger than the limit fails with a
// SizeLimit error.
func SerializedSize(cfg Config, v any) (uint64, error) {
	var c wire.Counter
	if err := NewEncoder(cfg, &c).Encode(v); err != nil {
		return 0, err
	}
	return c.N, nil
}

// Marshal encodes v into a new slice.
func Marshal(cfg Config, v any) ([]byte, error) {
	size, err := SerializedSize(cfg, v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(size))
	if err := NewEncoder(cfg, &buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTo encodes v into w. With a bounded Config the size is computed
// first and nothing is written when it exceeds the limit.
func MarshalTo(cfg Config, w io.Writer, v any) error {
	if _, bounded := cfg.orDefault().Limit(); bounded {
		if _, err := SerializedSize(cfg, v); err != nil {
			return err
		}
	}
	return NewEncoder(cfg, w).Encode(v)
}

// Unmarshal decodes data into v, which must be a non-nil pointer. Bytes
// after the value are ignored. A length prefix that runs past the end of
// data fails before anything is allocated for it.
func Unmarshal(cfg Config, data []byte, v any) error {
	return newDecoder(cfg, wire.NewSliceReader(data)).Decode(v)
}

// UnmarshalFrom decodes one value from r into v. On error r may have been
// partially consumed.
func UnmarshalFrom(cfg Config, r io.Reader, v any) error {
	return NewDecoder(cfg, r).Decode(v)
}
