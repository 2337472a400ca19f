package bincode

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindIo, Err: io.ErrUnexpectedEOF}, "bincode: io error: unexpected EOF"},
		{&Error{Kind: KindInvalidBoolEncoding, Value: 2}, "bincode: invalid u8 while decoding bool, expected 0 or 1, found 2"},
		{&Error{Kind: KindInvalidTagEncoding, Value: 255}, "bincode: tag for enum is not valid, found 255"},
		{&Error{Kind: KindDepthLimit, Value: 128}, "bincode: the recursion depth limit of 128 has been reached"},
		{&Error{Kind: KindSizeLimit}, "bincode: the size limit has been reached"},
		{&Error{Kind: KindCustom, Msg: "bad op"}, "bincode: bad op"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestErrorIsComparesKind(t *testing.T) {
	err := error(&Error{Kind: KindSizeLimit, Value: 1000})
	assert.True(t, errors.Is(err, ErrSizeLimit))
	assert.False(t, errors.Is(err, ErrDepthLimit))
	assert.False(t, errors.Is(err, io.EOF))

	wrapped := &Error{Kind: KindIo, Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, wrapped, ErrIo)
}

func TestErrorf(t *testing.T) {
	err := Errorf("unknown op %d", 7)
	assert.ErrorIs(t, err, ErrCustom)
	assert.EqualError(t, err, "bincode: unknown op 7")
}

func TestIoErrorKeepsCodecErrors(t *testing.T) {
	assert.Nil(t, ioError(nil))
	assert.Same(t, ErrSizeLimit, ioError(ErrSizeLimit))
	assert.ErrorIs(t, ioError(io.EOF), ErrIo)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "SequenceMustHaveLength", KindSequenceMustHaveLength.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
