package wire

import (
	"io"
)

// chunkSize caps a single allocation when the caller asks for a large
// declared length. Data is pulled in pieces of this size so a lying length
// prefix cannot force a huge allocation before the bytes actually exist.
const chunkSize = 64 << 10

// Reader is the forward-only byte source used by the decoder. It yields
// exactly the requested number of bytes or fails; consumed bytes can never
// be read again.
type Reader struct {
	r         io.Reader
	bytesRead uint64
	err       error // first error encountered while reading

	// remaining is the number of bytes left in a slice-backed source, or -1
	// when the source length is unknown.
	remaining int64
	scratch   [16]byte
}

// NewReader creates a Reader over an arbitrary io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, remaining: -1}
}

// NewSliceReader creates a Reader over an in-memory buffer. Knowing the
// buffer length lets ReadBytes reject a declared length that runs past the
// end without allocating for it.
func NewSliceReader(b []byte) *Reader {
	return &Reader{r: &sliceSource{b: b}, remaining: int64(len(b))}
}

// Err returns the first error that occurred during reading, if any.
func (r *Reader) Err() error {
	return r.err
}

// BytesRead returns the number of bytes consumed so far.
func (r *Reader) BytesRead() uint64 {
	return r.bytesRead
}

// recordError records the first error. Later reads return it unchanged.
func (r *Reader) recordError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// ReadFull fills p completely.
func (r *Reader) ReadFull(p []byte) error {
	if r.err != nil {
		return r.err
	}
	if len(p) == 0 {
		return nil
	}
	if r.remaining >= 0 && int64(len(p)) > r.remaining {
		r.recordError(io.ErrUnexpectedEOF)
		return r.err
	}
	n, err := io.ReadFull(r.r, p)
	r.bytesRead += uint64(n)
	if r.remaining >= 0 {
		r.remaining -= int64(n)
	}
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.recordError(err)
		return err
	}
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.ReadFull(r.scratch[:1]); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

// ReadSmall reads n ≤ 16 bytes into an internal buffer. The returned slice
// is only valid until the next call on r.
func (r *Reader) ReadSmall(n int) ([]byte, error) {
	buf := r.scratch[:n]
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBytes reads exactly n bytes into a freshly allocated slice.
func (r *Reader) ReadBytes(n uint64) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.remaining >= 0 && n > uint64(r.remaining) {
		r.recordError(io.ErrUnexpectedEOF)
		return nil, r.err
	}
	if n <= chunkSize {
		out := make([]byte, n)
		if err := r.ReadFull(out); err != nil {
			return nil, err
		}
		return out, nil
	}
	out := make([]byte, 0, chunkSize)
	for left := n; left > 0; {
		step := uint64(chunkSize)
		if left < step {
			step = left
		}
		start := len(out)
		out = append(out, make([]byte, step)...)
		if err := r.ReadFull(out[start:]); err != nil {
			return nil, err
		}
		left -= step
	}
	return out, nil
}

type sliceSource struct {
	b []byte
}

func (s *sliceSource) Read(p []byte) (int, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.b)
	s.b = s.b[n:]
	return n, nil
}
