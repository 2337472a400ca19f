package guestmem

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/jredrado/bincode2/pkg/bincode"
)

// memoryModule is a WebAssembly module that only exports a one-page
// memory named "memory" with no maximum.
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: min 1 page
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, // export "memory"
}

func newMemory(t *testing.T) api.Memory {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	mod, err := r.Instantiate(ctx, memoryModule)
	require.NoError(t, err)
	mem := mod.ExportedMemory("memory")
	require.NotNil(t, mem)
	require.Equal(t, uint32(PageSize), mem.Size())
	return mem
}

type entry struct {
	Key   string
	Value []byte
	TTL   *uint32
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	mem := newMemory(t)
	cfg := bincode.MustConfig(bincode.WithVarintEncoding())
	ttl := uint32(300)
	in := entry{Key: "user:1", Value: []byte("payload"), TTL: &ttl}

	ptr, size, err := Encode(cfg, mem, 128, in)
	require.NoError(t, err)
	assert.Equal(t, uint32(128), ptr)

	raw, ok := mem.Read(ptr, size)
	require.True(t, ok)
	want, err := bincode.Marshal(cfg, in)
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	var out entry
	require.NoError(t, Decode(cfg, mem, ptr, size, &out))
	assert.Equal(t, in, out)
}

func TestEncodeGrowsMemory(t *testing.T) {
	mem := newMemory(t)
	in := entry{Key: "big", Value: make([]byte, 3*PageSize)}

	ptr, size, err := Encode(bincode.DefaultConfig(), mem, PageSize-8, in)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, uint64(mem.Size()), uint64(ptr)+uint64(size))
	assert.Equal(t, uint32(5*PageSize), mem.Size())

	var out entry
	require.NoError(t, Decode(bincode.DefaultConfig(), mem, ptr, size, &out))
	assert.Equal(t, in, out)
}

func TestEncodeRespectsMaxPages(t *testing.T) {
	mem := newMemory(t)
	in := entry{Key: "big", Value: make([]byte, PageSize)}

	_, _, err := Encode(bincode.DefaultConfig(), mem, 0, in, WithMaxPages(1))
	assert.ErrorIs(t, err, ErrMemoryExceeded)
	assert.Equal(t, uint32(PageSize), mem.Size())

	raw, ok := mem.Read(0, 8)
	require.True(t, ok)
	assert.Equal(t, make([]byte, 8), raw, "nothing may be written")
}

func TestEncodeSizeLimit(t *testing.T) {
	mem := newMemory(t)
	cfg := bincode.MustConfig(bincode.WithLimit(4))
	_, _, err := Encode(cfg, mem, 0, entry{Key: "too long"})
	assert.ErrorIs(t, err, bincode.ErrSizeLimit)
}

func TestDecodeOutOfBounds(t *testing.T) {
	mem := newMemory(t)
	var out entry
	err := Decode(bincode.DefaultConfig(), mem, PageSize-4, 8, &out)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	var be *BoundsError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "read", be.Op)
}

func TestDecodeTruncatedRegion(t *testing.T) {
	mem := newMemory(t)
	ptr, size, err := Encode(bincode.DefaultConfig(), mem, 0, entry{Key: "k", Value: []byte{1, 2, 3}})
	require.NoError(t, err)

	var out entry
	err = Decode(bincode.DefaultConfig(), mem, ptr, size-2, &out)
	assert.ErrorIs(t, err, bincode.ErrIo)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSourceReadsForwardOnly(t *testing.T) {
	mem := newMemory(t)
	require.True(t, mem.Write(10, []byte{1, 2, 3, 4, 5}))

	src, err := NewSource(mem, 10, 5)
	require.NoError(t, err)
	buf := make([]byte, 3)
	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, buf)
	assert.Equal(t, uint32(2), src.Remaining())

	n, err = src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{4, 5}, buf[:n])

	_, err = src.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
