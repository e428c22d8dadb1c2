package rpf7

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gorpf/rpf-kit/pkg/consts"
	"github.com/gorpf/rpf-kit/pkg/option"
	"github.com/gorpf/rpf-kit/pkg/rpfcrypto"
)

// buildDirectoryRecord returns a raw directory entry record.
func buildDirectoryRecord(nameOffset, entriesIndex, entriesCount uint32) []byte {
	raw := make([]byte, 16)
	packU32(raw, 0, nameOffset)
	packU32(raw, 4, consts.DirectorySentinel)
	packU32(raw, 8, entriesIndex)
	packU32(raw, 12, entriesCount)
	return raw
}

// buildBinaryRecord returns a raw binary-file entry record.
func buildBinaryRecord(nameOffset, onDiskSize, payloadBlockOffset, uncompressedSize uint32, encryptionType uint8) []byte {
	raw := make([]byte, 16)

	var d1 uint64
	d1 |= uint64(nameOffset) & 0xFFFF
	d1 |= (uint64(onDiskSize) & 0xFFFFFF) << 16
	d1 |= (uint64(payloadBlockOffset) & 0xFFFFFF) << 40
	packU64(raw, 0, d1)

	var d2 uint64
	d2 |= uint64(uncompressedSize) & 0xFFFFFF
	d2 |= (uint64(encryptionType) & 0xFF) << 24
	packU64(raw, 8, d2)

	return raw
}

// buildResourceRecord returns a raw resource-file entry record.
func buildResourceRecord(nameOffset, onDiskSize, payloadBlockOffset, sysFlags, gfxFlags uint32) []byte {
	raw := make([]byte, 16)

	var d1 uint64
	d1 |= uint64(nameOffset) & 0xFFFF
	d1 |= (uint64(onDiskSize) & 0xFFFFFF) << 16
	d1 |= (uint64(payloadBlockOffset) & 0xFFFFFF) << 40
	packU64(raw, 0, d1)

	d2 := uint64(sysFlags) | uint64(gfxFlags)<<32
	d2 |= uint64(1) << 63
	packU64(raw, 8, d2)

	return raw
}

// buildArchiveBytes assembles a full archive byte buffer: header, entries,
// names, then whatever payload bytes are placed at absolute offsets,
// zero-padded up to totalSize.
func buildArchiveBytes(entryCount, namesLen uint32, encMode consts.EncryptionMode, entries [][]byte, names []byte, payloads map[int][]byte, totalSize int) []byte {
	buf := make([]byte, totalSize)
	packU32(buf, 0, consts.RPF7Version)
	packU32(buf, 4, entryCount)
	packU32(buf, 8, namesLen)
	packU32(buf, 12, uint32(encMode))

	off := 16
	for _, e := range entries {
		copy(buf[off:], e)
		off += 16
	}
	copy(buf[off:], names)

	for at, data := range payloads {
		copy(buf[at:], data)
	}
	return buf
}

// e1Names is "\x00root\x00hi\x00": offset 1 -> "root", offset 6 -> "hi".
var e1Names = []byte("\x00root\x00hi\x00")

func buildE1Bytes() []byte {
	entries := [][]byte{
		buildDirectoryRecord(1, 1, 1),
		buildBinaryRecord(6, 5, 1, 0, 0),
	}
	payloads := map[int][]byte{512: []byte("HELLO")}
	return buildArchiveBytes(2, uint32(len(e1Names)), consts.EncryptionNone, entries, e1Names, payloads, 512+5)
}

func TestOpenE1MinimalArchive(t *testing.T) {
	buf := buildE1Bytes()
	archive, err := Open(bytes.NewReader(buf), "e1.rpf", 0, nil)
	require.NoError(t, err)

	require.True(t, archive.Root.IsDir())
	require.Len(t, archive.Root.Children, 1)

	hi := archive.Find("hi")
	require.NotNil(t, hi)
	require.False(t, hi.IsDir())

	data, err := ReadFile(bytes.NewReader(buf), hi)
	require.NoError(t, err)
	require.Equal(t, []byte("HELLO"), data)
}

func TestOpenE2CorruptedDirectorySentinel(t *testing.T) {
	buf := buildE1Bytes()
	// Byte offset 4 within entry 0's 16-byte record is the archive header
	// (16 bytes) plus the entry's own offset 4 -- i.e. absolute offset 20.
	packU32(buf, consts.RPF7HeaderSize+4, 0x7FFFFF01)

	_, err := Open(bytes.NewReader(buf), "e2.rpf", 0, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidDirectoryEntry))
}

func TestOpenE3VersionMismatch(t *testing.T) {
	buf := buildE1Bytes()
	packU32(buf, 0, 0x52504638)

	_, err := Open(bytes.NewReader(buf), "e3.rpf", 0, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidVersion))
}

func TestOpenE4CompressedEntry(t *testing.T) {
	// A raw DEFLATE stored block: BFINAL=1, BTYPE=00, byte-aligned,
	// LEN=11, NLEN=^LEN, then the 11 literal bytes of "hello world".
	deflated := []byte{0x01, 0x0B, 0x00, 0xF4, 0xFF}
	deflated = append(deflated, []byte("hello world")...)

	names := []byte("\x00root\x00f\x00")
	entries := [][]byte{
		buildDirectoryRecord(1, 1, 1),
		buildBinaryRecord(6, uint32(len(deflated)), 1, 11, 0),
	}
	payloads := map[int][]byte{512: deflated}
	buf := buildArchiveBytes(2, uint32(len(names)), consts.EncryptionNone, entries, names, payloads, 512+len(deflated))

	archive, err := Open(bytes.NewReader(buf), "e4.rpf", 0, nil)
	require.NoError(t, err)

	f := archive.Find("f")
	require.NotNil(t, f)

	data, err := ReadFile(bytes.NewReader(buf), f)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
	require.Len(t, data, 11)
}

func TestOpenE5ResourceSizeReconstruction(t *testing.T) {
	names := []byte("\x00root\x00r\x00")
	entries := [][]byte{
		buildDirectoryRecord(1, 1, 1),
		buildResourceRecord(6, consts.ResourceOnDiskSizeMarker, 1, 0x00000001, 0x00000000),
	}
	payloads := map[int][]byte{512: []byte{0xAB}}
	buf := buildArchiveBytes(2, uint32(len(names)), consts.EncryptionNone, entries, names, payloads, 513)

	archive, err := Open(bytes.NewReader(buf), "e5.rpf", 0, nil)
	require.NoError(t, err)

	r := archive.Find("r")
	require.NotNil(t, r)
	require.True(t, r.IsResource())
	require.Equal(t, uint32(1), r.OnDiskSize)
	require.Equal(t, uint32(1), r.UncompressedSize)

	data, err := ReadFile(bytes.NewReader(buf), r)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAB}, data)
}

func TestOpenE6NestedArchive(t *testing.T) {
	innerNames := []byte("\x00root\x00inner.txt\x00")
	innerEntries := [][]byte{
		buildDirectoryRecord(1, 1, 1),
		buildBinaryRecord(6, 2, 1, 0, 0),
	}
	innerPayloads := map[int][]byte{512: []byte("ok")}
	inner := buildArchiveBytes(2, uint32(len(innerNames)), consts.EncryptionNone, innerEntries, innerNames, innerPayloads, 512+2)

	outerNames := []byte("\x00root\x00child.rpf\x00")
	outerEntries := [][]byte{
		buildDirectoryRecord(1, 1, 1),
		buildBinaryRecord(6, uint32(len(inner)), 1, 0, 0),
	}
	outerPayloads := map[int][]byte{512: inner}
	outer := buildArchiveBytes(2, uint32(len(outerNames)), consts.EncryptionNone, outerEntries, outerNames, outerPayloads, 512+len(inner))

	archive, err := Open(bytes.NewReader(outer), "outer.rpf", 0, nil)
	require.NoError(t, err)
	require.Len(t, archive.Children, 1)
	require.Equal(t, "child.rpf", archive.ChildNames[0])

	child := archive.Children[0]
	innerFile := child.Find("inner.txt")
	require.NotNil(t, innerFile)

	data, err := ReadFile(bytes.NewReader(outer), innerFile)
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))
}

func TestOpenE7AESEncryptedTOC(t *testing.T) {
	names := e1Names
	entries := [][]byte{
		buildDirectoryRecord(1, 1, 1),
		buildBinaryRecord(6, 5, 1, 0, 1), // encryption_type = 1: payload is AES-encrypted too
	}

	cipher, err := rpfcrypto.NewBlockCipher()
	require.NoError(t, err)

	var plainEntries []byte
	for _, e := range entries {
		plainEntries = append(plainEntries, e...)
	}
	encryptedEntries := cipher.Encrypt(plainEntries)
	encryptedNames := cipher.Encrypt(names)

	plainPayload := []byte("HELLO")
	encryptedPayload := cipher.Encrypt(plainPayload)

	buf := make([]byte, 512+5)
	packU32(buf, 0, consts.RPF7Version)
	packU32(buf, 4, 2)
	packU32(buf, 8, uint32(len(names)))
	packU32(buf, 12, uint32(consts.EncryptionAES))
	off := 16
	copy(buf[off:], encryptedEntries)
	off += len(encryptedEntries)
	copy(buf[off:], encryptedNames)
	copy(buf[512:], encryptedPayload)

	archive, err := Open(bytes.NewReader(buf), "e7.rpf", 0, nil)
	require.NoError(t, err)

	hi := archive.Find("hi")
	require.NotNil(t, hi)

	data, err := ReadFile(bytes.NewReader(buf), hi)
	require.NoError(t, err)
	require.Equal(t, plainPayload, data)
}

func TestFindIsCaseInsensitiveAndAcceptsBothSeparators(t *testing.T) {
	buf := buildE1Bytes()
	archive, err := Open(bytes.NewReader(buf), "e1.rpf", 0, nil)
	require.NoError(t, err)

	require.Equal(t, archive.Find("hi"), archive.Find("HI"))
	require.Equal(t, archive.Find("hi"), archive.Find("\\hi"))
	require.Equal(t, archive.Find("hi"), archive.Find("/hi"))
}

func TestRootHasNoParentAndIsDirectory(t *testing.T) {
	buf := buildE1Bytes()
	archive, err := Open(bytes.NewReader(buf), "e1.rpf", 0, nil)
	require.NoError(t, err)

	require.Nil(t, archive.Root.Parent)
	require.True(t, archive.Root.IsDir())
	for _, e := range archive.Entries[1:] {
		require.NotNil(t, e.Parent)
	}
}

func TestUnsupportedEncryptionModeFailsOpen(t *testing.T) {
	buf := buildE1Bytes()
	packU32(buf, 12, 0xDEADBEEF)

	_, err := Open(bytes.NewReader(buf), "bad-mode.rpf", 0, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedEncryption))
}

func TestNGArchiveWithoutKeyMaterialFails(t *testing.T) {
	buf := buildE1Bytes()
	packU32(buf, 12, uint32(consts.EncryptionNG))

	_, err := Open(bytes.NewReader(buf), "ng.rpf", 0, option.NewOpenOptions())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedEncryption))
}
