//go:build fuzz
// +build fuzz

package bincode

import (
	"testing"
)

// FuzzUnmarshal feeds arbitrary bytes to the decoder. Decoding may fail
// but must never panic, and whatever decodes must encode again.
func FuzzUnmarshal(f *testing.F) {
	cfg := MustConfig(WithVarintEncoding(), WithLimit(1<<16), WithMaxDepth(16))

	seed, err := Marshal(cfg, sampleRecord())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{255})
	f.Add([]byte{254, 1, 2, 3})

	f.Fuzz(func(t *testing.T, data []byte) {
		var r record
		if err := Unmarshal(cfg, data, &r); err != nil {
			return
		}
		if _, err := Marshal(MustConfig(WithVarintEncoding()), r); err != nil {
			t.Fatalf("re-encode of decoded value failed: %v", err)
		}
	})
}
