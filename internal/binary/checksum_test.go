package binary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup3ChecksumIsDeterministic(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		[]byte("atom"),
		[]byte("Hello World!"),  // exactly 12 bytes
		[]byte("Hello World!!"), // 13 bytes, one past the fast-path loop
	}

	for _, in := range inputs {
		require.Equal(t, Lookup3Checksum(in), Lookup3Checksum(in))
	}
}

func TestLookup3ChecksumDistinguishesLengths(t *testing.T) {
	seen := make(map[uint32]int)
	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		seen[Lookup3Checksum(data)] = length
	}

	require.Len(t, seen, 25, "each length 0-24 should produce a distinct checksum")
}

func BenchmarkLookup3Checksum(b *testing.B) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Lookup3Checksum(data)
	}
}
