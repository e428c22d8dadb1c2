// Package rpfcrypto implements the two keyed transforms RPF7 archives apply
// to their table of contents and file payloads: a fixed-key AES-128 block
// cipher run in ECB mode over whole buffers, and a pluggable keyed-XOR
// keystream used by the NG encryption mode.
package rpfcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// blockKey is the compiled-in 128-bit AES key RPF7's AES encryption mode
// uses for both the table of contents and per-file payloads. It is not
// derived from anything at runtime; the cipher primitive is unkeyed beyond
// this constant, per the archive format.
var blockKey = [16]byte{
	0x13, 0x2A, 0x3D, 0x44, 0x55, 0x6E, 0x77, 0x88,
	0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00,
}

// BlockCipher wraps the fixed-key AES-128 block used by the archive's AES
// encryption mode. Construct one with NewBlockCipher; the zero value holds no
// cipher and is not usable.
type BlockCipher struct {
	block cipher.Block
}

// NewBlockCipher constructs a BlockCipher bound to the compiled-in key.
func NewBlockCipher() (*BlockCipher, error) {
	block, err := aes.NewCipher(blockKey[:])
	if err != nil {
		return nil, fmt.Errorf("rpfcrypto: failed to initialize block cipher: %w", err)
	}
	return &BlockCipher{block: block}, nil
}

// Decrypt processes buf as floor(len(buf)/16) independent 16-byte ECB blocks
// and returns the result in a new slice, leaving buf unchanged; any trailing
// len(buf)%16 bytes are copied through untouched. Every input length is valid
// and the output length always equals the input length.
func (c *BlockCipher) Decrypt(buf []byte) []byte {
	return c.transform(buf, c.block.Decrypt)
}

// Encrypt is the inverse of Decrypt, with the same block/tail semantics.
func (c *BlockCipher) Encrypt(buf []byte) []byte {
	return c.transform(buf, c.block.Encrypt)
}

func (c *BlockCipher) transform(buf []byte, op func(dst, src []byte)) []byte {
	const blockSize = 16
	out := make([]byte, len(buf))
	n := len(buf) / blockSize
	for i := 0; i < n; i++ {
		off := i * blockSize
		op(out[off:off+blockSize], buf[off:off+blockSize])
	}
	// Tail shorter than one block is not block-aligned by the producer;
	// pass it through unchanged so truncated buffers still round-trip.
	copy(out[n*blockSize:], buf[n*blockSize:])
	return out
}
