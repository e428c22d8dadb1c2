// Package bitpack extracts unaligned little-endian bit fields out of the
// 64-bit words that make up an RPF7 entries-table record. Fields in those
// records do not fall on byte boundaries, so they cannot be read with
// reinterpret-cast-style struct decoding; every field is pulled out with an
// explicit shift and mask instead.
package bitpack

import "encoding/binary"

// Uint64LE reads a little-endian uint64 out of an 8-byte slice.
func Uint64LE(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// Uint32LE reads a little-endian uint32 out of a 4-byte slice.
func Uint32LE(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Field extracts the [lo, hi) bit range (lo inclusive, hi exclusive, both
// counted from bit 0 = least significant) out of a 64-bit word.
func Field(word uint64, lo, hi uint) uint64 {
	width := hi - lo
	mask := uint64(1)<<width - 1
	return (word >> lo) & mask
}

// Field32 is Field truncated to 32 bits, for fields known to fit.
func Field32(word uint64, lo, hi uint) uint32 {
	return uint32(Field(word, lo, hi))
}
