package wire

import (
	"errors"
	"io"
)

// ErrLimit is returned by a limited Writer when a write would take the
// total past its limit. Nothing of the rejected write reaches the sink.
var ErrLimit = errors.New("wire: byte limit exceeded")

// Writer is the byte sink used by the encoder. It wraps an io.Writer,
// remembers the first error it sees and refuses further writes after it.
// Each Write call either hands all of p to the underlying writer or fails.
type Writer struct {
	w            io.Writer
	err          error  // first error encountered while writing
	bytesWritten uint64 // bytes accepted by the underlying writer

	limit   uint64
	limited bool
}

// NewWriter creates a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewLimitedWriter creates a Writer that accepts at most limit bytes in
// total.
func NewLimitedWriter(w io.Writer, limit uint64) *Writer {
	return &Writer{w: w, limit: limit, limited: true}
}

// Err returns the first error that occurred during writing, if any.
func (w *Writer) Err() error {
	return w.err
}

// BytesWritten returns the number of bytes accepted so far.
func (w *Writer) BytesWritten() uint64 {
	return w.bytesWritten
}

func (w *Writer) recordError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Write writes all of p. A short write without an error from the
// underlying writer is reported as io.ErrShortWrite.
func (w *Writer) Write(p []byte) error {
	if w.err != nil {
		return w.err
	}
	if len(p) == 0 {
		return nil
	}
	if w.limited && uint64(len(p)) > w.limit-w.bytesWritten {
		w.recordError(ErrLimit)
		return w.err
	}
	n, err := w.w.Write(p)
	w.bytesWritten += uint64(n)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	w.recordError(err)
	return err
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	var buf [1]byte
	buf[0] = b
	return w.Write(buf[:])
}

// Counter is an io.Writer that discards its input and counts it.
type Counter struct {
	N uint64
}

func (c *Counter) Write(p []byte) (int, error) {
	c.N += uint64(len(p))
	return len(p), nil
}
