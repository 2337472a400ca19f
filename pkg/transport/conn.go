// Package transport carries encoded values over WebSocket, one value per
// binary message.
//
// Each message is a compression tag byte followed by the payload, which is
// the encoded value, compressed as the tag says. A receiver accepts every
// tag regardless of what it sends.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/jredrado/bincode2/pkg/bincode"
)

// DefaultReadLimit bounds the size of an incoming message and of its
// decompressed payload.
const DefaultReadLimit = 1 << 20

var (
	ErrEmptyMessage          = errors.New("transport: empty message")
	ErrUnexpectedMessageType = errors.New("transport: expected a binary message")
	ErrUnknownCompression    = errors.New("transport: unknown compression")
)

type options struct {
	compression Compression
	brotliLevel int
	readLimit   int64
	logger      *slog.Logger
	dial        *websocket.DialOptions
	accept      *websocket.AcceptOptions
}

// Option configures a Conn.
type Option func(*options)

// WithCompression selects how outgoing messages are compressed.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithBrotli compresses outgoing messages with brotli at the given level.
func WithBrotli(level int) Option {
	return func(o *options) {
		o.compression = CompressionBrotli
		o.brotliLevel = level
	}
}

// WithReadLimit sets the largest message, and decompressed payload, that
// Receive accepts.
func WithReadLimit(n int64) Option {
	return func(o *options) { o.readLimit = n }
}

// WithLogger sets the logger used for connection events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDialOptions passes options through to websocket.Dial.
func WithDialOptions(d *websocket.DialOptions) Option {
	return func(o *options) { o.dial = d }
}

// WithAcceptOptions passes options through to websocket.Accept.
func WithAcceptOptions(a *websocket.AcceptOptions) Option {
	return func(o *options) { o.accept = a }
}

func newOptions(opts []Option) (options, error) {
	o := options{
		compression: CompressionNone,
		brotliLevel: brotli.DefaultCompression,
		readLimit:   DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.compression > CompressionLZ4 {
		return o, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(o.compression))
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// Conn sends and receives encoded values over one WebSocket connection.
// Send and Receive may run in different goroutines, but two concurrent
// Sends, or two concurrent Receives, are not allowed.
type Conn struct {
	id     uuid.UUID
	ws     *websocket.Conn
	cfg    bincode.Config
	opts   options
	logger *slog.Logger
}

func newConn(ws *websocket.Conn, cfg bincode.Config, o options) *Conn {
	ws.SetReadLimit(o.readLimit + 1)
	id := uuid.New()
	return &Conn{
		id:     id,
		ws:     ws,
		cfg:    cfg,
		opts:   o,
		logger: o.logger.With("conn", id.String()),
	}
}

// Dial connects to a WebSocket server at url.
func Dial(ctx context.Context, url string, cfg bincode.Config, opts ...Option) (*Conn, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	ws, _, err := websocket.Dial(ctx, url, o.dial)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	c := newConn(ws, cfg, o)
	c.logger.Debug("connection established", "url", url)
	return c, nil
}

// Accept upgrades an HTTP request to a WebSocket connection.
func Accept(w http.ResponseWriter, r *http.Request, cfg bincode.Config, opts ...Option) (*Conn, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	ws, err := websocket.Accept(w, r, o.accept)
	if err != nil {
		return nil, fmt.Errorf("transport: accept: %w", err)
	}
	c := newConn(ws, cfg, o)
	c.logger.Debug("connection accepted", "remote", r.RemoteAddr)
	return c, nil
}

// ID identifies the connection in log output.
func (c *Conn) ID() uuid.UUID { return c.id }

// Send encodes v and writes it as one binary message.
func (c *Conn) Send(ctx context.Context, v any) error {
	var buf bytes.Buffer
	buf.WriteByte(byte(c.opts.compression))

	if c.opts.compression == CompressionNone {
		if err := bincode.MarshalTo(c.cfg, &buf, v); err != nil {
			return err
		}
	} else {
		zw, err := compressor(c.opts.compression, c.opts.brotliLevel, &buf)
		if err != nil {
			return err
		}
		if err := bincode.MarshalTo(c.cfg, zw, v); err != nil {
			_ = zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("transport: compress: %w", err)
		}
	}

	if err := c.ws.Write(ctx, websocket.MessageBinary, buf.Bytes()); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	c.logger.Debug("message sent", "bytes", buf.Len(), "compression", c.opts.compression)
	return nil
}

// Receive reads one message and decodes it into v, which must be a non-nil
// pointer.
func (c *Conn) Receive(ctx context.Context, v any) error {
	typ, data, err := c.ws.Read(ctx)
	if err != nil {
		return fmt.Errorf("transport: read: %w", err)
	}
	if typ != websocket.MessageBinary {
		return ErrUnexpectedMessageType
	}
	if len(data) == 0 {
		return ErrEmptyMessage
	}
	tag, payload := Compression(data[0]), data[1:]
	c.logger.Debug("message received", "bytes", len(data), "compression", tag)

	if tag == CompressionNone {
		return bincode.Unmarshal(c.cfg, payload, v)
	}
	zr, release, err := decompressor(tag, payload)
	if err != nil {
		return err
	}
	defer release()
	return bincode.UnmarshalFrom(c.cfg, io.LimitReader(zr, c.opts.readLimit), v)
}

// Close performs a normal closing handshake.
func (c *Conn) Close() error {
	c.logger.Debug("closing connection")
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
