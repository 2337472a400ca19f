// Package guestmem moves encoded values in and out of a WebAssembly guest's
// linear memory.
package guestmem

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/jredrado/bincode2/pkg/bincode"
)

// PageSize is the size of one WebAssembly memory page.
const PageSize = 65536

// maxPages is the largest memory a 32-bit guest can address.
const maxPages = 65536

var (
	// ErrMemoryExceeded is returned when a write needs more pages than the
	// guest may grow to.
	ErrMemoryExceeded = errors.New("guestmem: memory limit exceeded")
	// ErrOutOfBounds is returned when a region lies outside guest memory.
	ErrOutOfBounds = errors.New("guestmem: access out of bounds")
)

// BoundsError describes a rejected access.
type BoundsError struct {
	Op     string
	Offset uint32
	Size   uint64
	Limit  uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("guestmem: %s out of bounds (offset=0x%x, size=%d, limit=0x%x)",
		e.Op, e.Offset, e.Size, e.Limit)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

type options struct {
	maxPages uint32
	logger   *slog.Logger
}

// Option configures a Sink.
type Option func(*options)

// WithMaxPages caps how far a Sink may grow guest memory.
func WithMaxPages(n uint32) Option {
	return func(o *options) { o.maxPages = n }
}

// WithLogger sets the logger used to report memory growth.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{maxPages: maxPages}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Sink is an io.Writer that appends to guest memory starting at a fixed
// offset, growing the memory as needed.
type Sink struct {
	mem    api.Memory
	start  uint32
	offset uint32
	opts   options
}

// NewSink creates a Sink writing at offset.
func NewSink(mem api.Memory, offset uint32, opts ...Option) *Sink {
	return &Sink{mem: mem, start: offset, offset: offset, opts: newOptions(opts)}
}

// Len returns the number of bytes written.
func (s *Sink) Len() uint32 { return s.offset - s.start }

// Reserve makes sure n more bytes fit after the current offset.
func (s *Sink) Reserve(n uint64) error {
	need := uint64(s.offset) + n
	size := uint64(s.mem.Size())
	if need <= size {
		return nil
	}
	if need > uint64(s.opts.maxPages)*PageSize {
		return fmt.Errorf("%w: need %d bytes, limit %d pages", ErrMemoryExceeded, need, s.opts.maxPages)
	}
	delta := uint32((need - size + PageSize - 1) / PageSize)
	prev, ok := s.mem.Grow(delta)
	if !ok {
		return fmt.Errorf("%w: failed to grow memory by %d pages", ErrMemoryExceeded, delta)
	}
	s.opts.logger.Debug("guest memory grown", "from_pages", prev, "delta_pages", delta)
	return nil
}

func (s *Sink) Write(p []byte) (int, error) {
	if err := s.Reserve(uint64(len(p))); err != nil {
		return 0, err
	}
	if !s.mem.Write(s.offset, p) {
		return 0, &BoundsError{Op: "write", Offset: s.offset, Size: uint64(len(p)), Limit: uint64(s.mem.Size())}
	}
	s.offset += uint32(len(p))
	return len(p), nil
}

// Source is an io.Reader over a fixed region of guest memory.
type Source struct {
	mem api.Memory
	ptr uint32
	end uint32
}

// NewSource creates a Source over [ptr, ptr+size).
func NewSource(mem api.Memory, ptr, size uint32) (*Source, error) {
	if uint64(ptr)+uint64(size) > uint64(mem.Size()) {
		return nil, &BoundsError{Op: "read", Offset: ptr, Size: uint64(size), Limit: uint64(mem.Size())}
	}
	return &Source{mem: mem, ptr: ptr, end: ptr + size}, nil
}

// Remaining returns the number of unread bytes.
func (s *Source) Remaining() uint32 { return s.end - s.ptr }

func (s *Source) Read(p []byte) (int, error) {
	if s.ptr == s.end {
		return 0, io.EOF
	}
	n := uint32(len(p))
	if left := s.end - s.ptr; n > left {
		n = left
	}
	view, ok := s.mem.Read(s.ptr, n)
	if !ok {
		return 0, &BoundsError{Op: "read", Offset: s.ptr, Size: uint64(n), Limit: uint64(s.mem.Size())}
	}
	copy(p, view)
	s.ptr += n
	return int(n), nil
}

// Encode writes v into guest memory at offset and returns the region it
// occupies. The size is computed first so memory grows at most once, and
// nothing is written when the value does not fit.
func Encode(cfg bincode.Config, mem api.Memory, offset uint32, v any, opts ...Option) (ptr, size uint32, err error) {
	n, err := bincode.SerializedSize(cfg, v)
	if err != nil {
		return 0, 0, err
	}
	if n > math.MaxUint32 {
		return 0, 0, fmt.Errorf("%w: value is %d bytes", ErrMemoryExceeded, n)
	}
	sink := NewSink(mem, offset, opts...)
	if err := sink.Reserve(n); err != nil {
		return 0, 0, err
	}
	if err := bincode.MarshalTo(cfg, sink, v); err != nil {
		return 0, 0, err
	}
	return offset, sink.Len(), nil
}

// Decode reads v from the guest memory region [ptr, ptr+size).
func Decode(cfg bincode.Config, mem api.Memory, ptr, size uint32, v any) error {
	src, err := NewSource(mem, ptr, size)
	if err != nil {
		return err
	}
	return bincode.UnmarshalFrom(cfg, src, v)
}
