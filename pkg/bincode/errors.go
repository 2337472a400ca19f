package bincode

import (
	"fmt"
)

// Kind identifies one entry of the closed set of failures the codec reports.
type Kind uint8

const (
	// KindIo means the sink or source failed; the cause is wrapped.
	KindIo Kind = iota + 1
	// KindInvalidUtf8Encoding means string bytes were not valid UTF-8.
	KindInvalidUtf8Encoding
	// KindInvalidBoolEncoding means a bool byte was neither 0 nor 1.
	KindInvalidBoolEncoding
	// KindInvalidCharEncoding means a decoded scalar is not a Unicode scalar value.
	KindInvalidCharEncoding
	// KindInvalidTagEncoding covers option tags outside {0,1}, enum variant
	// indexes without a matching variant, and the reserved varint marker.
	KindInvalidTagEncoding
	// KindDeserializeAnyNotSupported means the caller asked for decoding
	// without a known target shape.
	KindDeserializeAnyNotSupported
	// KindSizeLimit means a declared length would exceed the byte budget.
	KindSizeLimit
	// KindDepthLimit means composite nesting went past the configured depth.
	KindDepthLimit
	// KindSizeTypeLimit means a length does not fit the configured
	// length-prefix width.
	KindSizeTypeLimit
	// KindSequenceMustHaveLength means a sequence's length was not known
	// before encoding started.
	KindSequenceMustHaveLength
	// KindCustom carries a free-form message, usually from a Marshaler or
	// Unmarshaler implementation.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "Io"
	case KindInvalidUtf8Encoding:
		return "InvalidUtf8Encoding"
	case KindInvalidBoolEncoding:
		return "InvalidBoolEncoding"
	case KindInvalidCharEncoding:
		return "InvalidCharEncoding"
	case KindInvalidTagEncoding:
		return "InvalidTagEncoding"
	case KindDeserializeAnyNotSupported:
		return "DeserializeAnyNotSupported"
	case KindSizeLimit:
		return "SizeLimit"
	case KindDepthLimit:
		return "DepthLimit"
	case KindSizeTypeLimit:
		return "SizeTypeLimit"
	case KindSequenceMustHaveLength:
		return "SequenceMustHaveLength"
	case KindCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is the error type returned by every encode and decode operation.
// Value holds the offending byte, tag or scalar for the kinds that have
// one. Use errors.Is against the Err* sentinels to test the kind.
type Error struct {
	Kind  Kind
	Value uint64
	Msg   string
	Err   error
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrIo                         = &Error{Kind: KindIo}
	ErrInvalidUtf8Encoding        = &Error{Kind: KindInvalidUtf8Encoding}
	ErrInvalidBoolEncoding        = &Error{Kind: KindInvalidBoolEncoding}
	ErrInvalidCharEncoding        = &Error{Kind: KindInvalidCharEncoding}
	ErrInvalidTagEncoding         = &Error{Kind: KindInvalidTagEncoding}
	ErrDeserializeAnyNotSupported = &Error{Kind: KindDeserializeAnyNotSupported}
	ErrSizeLimit                  = &Error{Kind: KindSizeLimit}
	ErrDepthLimit                 = &Error{Kind: KindDepthLimit}
	ErrSizeTypeLimit              = &Error{Kind: KindSizeTypeLimit}
	ErrSequenceMustHaveLength     = &Error{Kind: KindSequenceMustHaveLength}
	ErrCustom                     = &Error{Kind: KindCustom}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindIo:
		return fmt.Sprintf("bincode: io error: %v", e.Err)
	case KindInvalidUtf8Encoding:
		if e.Err != nil {
			return fmt.Sprintf("bincode: string is not valid utf8: %v", e.Err)
		}
		return "bincode: string is not valid utf8"
	case KindInvalidBoolEncoding:
		return fmt.Sprintf("bincode: invalid u8 while decoding bool, expected 0 or 1, found %d", e.Value)
	case KindInvalidCharEncoding:
		return fmt.Sprintf("bincode: char is not valid, found %#x", e.Value)
	case KindInvalidTagEncoding:
		return fmt.Sprintf("bincode: tag for enum is not valid, found %d", e.Value)
	case KindDeserializeAnyNotSupported:
		return "bincode: decoding without a known target shape is not supported"
	case KindSizeLimit:
		return "bincode: the size limit has been reached"
	case KindDepthLimit:
		return fmt.Sprintf("bincode: the recursion depth limit of %d has been reached", e.Value)
	case KindSizeTypeLimit:
		return fmt.Sprintf("bincode: the size %d is larger than can be represented with this config", e.Value)
	case KindSequenceMustHaveLength:
		return "bincode: can only encode sequences and maps that have a knowable size ahead of time"
	case KindCustom:
		if e.Err != nil {
			return fmt.Sprintf("bincode: %s: %v", e.Msg, e.Err)
		}
		return "bincode: " + e.Msg
	default:
		return fmt.Sprintf("bincode: unknown error kind %d", uint8(e.Kind))
	}
}

// Unwrap exposes the sink/source failure or the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errorf builds a KindCustom error. Marshaler and Unmarshaler
// implementations use it to report domain failures through the codec.
func Errorf(format string, args ...interface{}) error {
	return &Error{Kind: KindCustom, Msg: fmt.Sprintf(format, args...)}
}

func ioError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Kind: KindIo, Err: err}
}
