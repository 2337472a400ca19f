package bincode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"
)

// Settings is the file form of a Config. Empty fields keep their default.
//
//	endian: big
//	int_encoding: varint
//	limit: 65536
//	max_depth: 32
//	string_length: u32
//	array_length: u16
type Settings struct {
	Endian       string  `yaml:"endian"`
	IntEncoding  string  `yaml:"int_encoding"`
	Limit        *uint64 `yaml:"limit"`
	MaxDepth     int     `yaml:"max_depth"`
	StringLength string  `yaml:"string_length"`
	ArrayLength  string  `yaml:"array_length"`
}

// LoadSettings reads Settings from a YAML file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes Settings from YAML. Unknown keys are rejected.
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &s, nil
}

// Config validates every field and builds the Config. All invalid fields
// are reported together as an errsx.Map keyed by YAML field name.
func (s *Settings) Config() (Config, error) {
	var errs errsx.Map
	var opts []Option

	switch s.Endian {
	case "", "little":
		opts = append(opts, WithLittleEndian())
	case "big":
		opts = append(opts, WithBigEndian())
	case "native":
		opts = append(opts, WithNativeEndian())
	default:
		errs.Set("endian", fmt.Errorf("must be little, big or native, got %q", s.Endian))
	}

	switch s.IntEncoding {
	case "", "fixed":
		opts = append(opts, WithFixedIntEncoding())
	case "varint":
		opts = append(opts, WithVarintEncoding())
	default:
		errs.Set("int_encoding", fmt.Errorf("must be fixed or varint, got %q", s.IntEncoding))
	}

	if s.Limit != nil {
		opts = append(opts, WithLimit(*s.Limit))
	}

	switch {
	case s.MaxDepth < 0:
		errs.Set("max_depth", fmt.Errorf("must be positive, got %d", s.MaxDepth))
	case s.MaxDepth > 0:
		opts = append(opts, WithMaxDepth(s.MaxDepth))
	}

	if w, err := parseLengthWidth(s.StringLength); err != nil {
		errs.Set("string_length", err)
	} else {
		opts = append(opts, WithStringLength(w))
	}
	if w, err := parseLengthWidth(s.ArrayLength); err != nil {
		errs.Set("array_length", err)
	} else {
		opts = append(opts, WithArrayLength(w))
	}

	if !errs.IsEmpty() {
		return Config{}, errs.AsError()
	}
	return NewConfig(opts...)
}

func parseLengthWidth(s string) (LengthWidth, error) {
	switch s {
	case "", "u64":
		return LengthU64, nil
	case "u32":
		return LengthU32, nil
	case "u16":
		return LengthU16, nil
	case "u8":
		return LengthU8, nil
	default:
		return 0, fmt.Errorf("must be u8, u16, u32 or u64, got %q", s)
	}
}
