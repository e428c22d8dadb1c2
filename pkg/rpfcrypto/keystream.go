package rpfcrypto

import (
	"errors"
	"strings"
)

// ErrKeyMaterialUnavailable is returned by a KeystreamProvider that has no
// key schedule for the requested (name, lengthTag) pair. Callers must treat
// this as a hard failure for the affected archive rather than fall back to
// a guessed or zeroed keystream.
var ErrKeyMaterialUnavailable = errors.New("rpfcrypto: NG key material unavailable")

// KeystreamProvider produces the keyed-XOR stream used by RPF7's NG
// encryption mode. A conforming implementation is pure (the result depends
// only on name, lengthTag, and static key material, never on ciphertext) and
// safe for concurrent use from multiple goroutines once constructed.
//
// Keystream returns a byte slice at least lengthTag bytes long, or wraps
// ErrKeyMaterialUnavailable if no key schedule is available for name.
type KeystreamProvider interface {
	Keystream(name string, lengthTag uint32) ([]byte, error)
}

// StubKeystreamProvider is the bundled KeystreamProvider. It holds no NG key
// schedule: the real derivation used by any particular game build is not
// publicly documented, and guessing one would silently corrupt data instead
// of failing loudly, so every call fails with ErrKeyMaterialUnavailable and
// NG-encrypted archives are reported as unreadable. Supplying a working key
// schedule means implementing this interface with one, not patching this
// type.
type StubKeystreamProvider struct{}

// Keystream always fails; see StubKeystreamProvider's doc comment.
func (StubKeystreamProvider) Keystream(name string, lengthTag uint32) ([]byte, error) {
	return nil, ErrKeyMaterialUnavailable
}

// XORKeystream cycles keystream across buf and writes the result into a
// freshly allocated output slice the same length as buf. It is used for both
// the whole-TOC NG transform and the per-entry payload NG transform; only the
// (name, lengthTag) fed into KeystreamProvider.Keystream differs between the
// two call sites.
func XORKeystream(buf, keystream []byte) []byte {
	out := make([]byte, len(buf))
	if len(keystream) == 0 {
		copy(out, buf)
		return out
	}
	for i := range buf {
		out[i] = buf[i] ^ keystream[i%len(keystream)]
	}
	return out
}

// NormalizeKeyName lowercases an entry or archive filename the way the NG
// keystream derivation expects; the keystream is keyed on the lowercased
// name, not the on-disk casing.
func NormalizeKeyName(name string) string {
	return strings.ToLower(name)
}
