package transport

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the tag byte leading every message. The values are part
// of the wire protocol.
type Compression uint8

const (
	CompressionNone   Compression = 0
	CompressionBrotli Compression = 1
	CompressionZstd   Compression = 2
	CompressionLZ4    Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "brotli":
		return CompressionBrotli, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// compressor returns a writer that compresses into w. Close flushes it.
func compressor(c Compression, brotliLevel int, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionBrotli:
		return brotli.NewWriterLevel(w, brotliLevel), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("transport: zstd writer: %w", err)
		}
		return zw, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}

// decompressor returns a reader over the decompressed payload and a
// function releasing its resources.
func decompressor(c Compression, payload []byte) (io.Reader, func(), error) {
	src := bytes.NewReader(payload)
	switch c {
	case CompressionBrotli:
		return brotli.NewReader(src), func() {}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("transport: zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(src), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
