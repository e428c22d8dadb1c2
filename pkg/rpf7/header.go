package rpf7

import (
	"fmt"

	"github.com/gorpf/rpf-kit/pkg/bitpack"
	"github.com/gorpf/rpf-kit/pkg/consts"
)

// header is the decoded form of an archive's 16-byte fixed header.
type header struct {
	Version        uint32
	EntryCount     uint32
	NamesLength    uint32
	EncryptionMode consts.EncryptionMode
}

// decodeHeader parses the 16-byte archive header and validates the version
// tag. It does not validate the encryption mode against the known set; an
// unrecognized mode value is reported as EncryptionMode.String() == "UNKNOWN"
// and surfaces as ErrUnsupportedEncryption once decryption is attempted.
func decodeHeader(raw []byte) (*header, error) {
	if len(raw) != consts.RPF7HeaderSize {
		return nil, fmt.Errorf("rpf7: header must be %d bytes, got %d", consts.RPF7HeaderSize, len(raw))
	}

	version := bitpack.Uint32LE(raw[0:4])
	if version != consts.RPF7Version {
		return nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrInvalidVersion, version, consts.RPF7Version)
	}

	return &header{
		Version:        version,
		EntryCount:     bitpack.Uint32LE(raw[4:8]),
		NamesLength:    bitpack.Uint32LE(raw[8:12]),
		EncryptionMode: consts.EncryptionMode(bitpack.Uint32LE(raw[12:16])),
	}, nil
}
