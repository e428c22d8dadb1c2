package bitpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	t.Run("LowNibble", func(t *testing.T) {
		require.Equal(t, uint64(0xD), Field(0xABCD, 0, 4))
	})

	t.Run("MidRange", func(t *testing.T) {
		// d1[16..40) == on-disk size
		word := uint64(0x0000_00AB_CDEF_0000)
		require.Equal(t, uint64(0xABCDEF), Field(word, 16, 40))
	})

	t.Run("HighRange", func(t *testing.T) {
		word := uint64(0xFFFF_0000_0000_0000)
		require.Equal(t, uint64(0xFFFF), Field(word, 48, 64))
	})

	t.Run("Field32Truncates", func(t *testing.T) {
		require.Equal(t, uint32(0x1234), Field32(0x1234, 0, 32))
	})
}

func TestUint64LE(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	require.Equal(t, uint64(0x0807060504030201), Uint64LE(b))
}

func TestUint32LE(t *testing.T) {
	b := []byte{0xEF, 0xBE, 0xAD, 0xDE}
	require.Equal(t, uint32(0xDEADBEEF), Uint32LE(b))
}
