package rpfcrypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubKeystreamProviderAlwaysFails(t *testing.T) {
	var p StubKeystreamProvider
	_, err := p.Keystream("weapons.rpf", 1234)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrKeyMaterialUnavailable))
}

type fakeKeystreamProvider struct {
	stream []byte
}

func (f fakeKeystreamProvider) Keystream(name string, lengthTag uint32) ([]byte, error) {
	return f.stream, nil
}

func TestXORKeystreamCycles(t *testing.T) {
	data := []byte("HELLO WORLD")
	stream := []byte{0xFF, 0x00}

	encrypted := XORKeystream(data, stream)
	require.Len(t, encrypted, len(data))

	// XOR is its own inverse.
	decrypted := XORKeystream(encrypted, stream)
	require.Equal(t, data, decrypted)
}

func TestXORKeystreamEmptyStreamIsNoop(t *testing.T) {
	data := []byte("payload")
	require.Equal(t, data, XORKeystream(data, nil))
}

func TestNormalizeKeyName(t *testing.T) {
	require.Equal(t, "weapons.rpf", NormalizeKeyName("WEAPONS.RPF"))
}
