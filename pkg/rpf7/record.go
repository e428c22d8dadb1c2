package rpf7

import (
	"bytes"
	"fmt"

	"github.com/gorpf/rpf-kit/pkg/bitpack"
	"github.com/gorpf/rpf-kit/pkg/consts"
)

// Kind discriminates the three entry variants a 16-byte RPF7 record can
// decode to.
type Kind int

const (
	KindDirectory Kind = iota
	KindBinaryFile
	KindResourceFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindBinaryFile:
		return "binary"
	case KindResourceFile:
		return "resource"
	default:
		return "unknown"
	}
}

// Entry is a decoded RPF7 entries-table record, closed over the three
// variants in the archive format: directories carry index/count into the
// flat entries array, binary files carry an on-disk size and an optional
// per-entry encryption flag, resource files carry bit-packed system/graphics
// flags in place of a plain size.
//
// Every entry also carries resolved identity fields filled in after decode:
// Name, NameLower, Path (backslash-joined, archive-native), Parent and
// Archive. Downstream code should switch on Kind rather than probe these
// fields' zero values, since a directory entry's OnDiskSize is always zero.
type Entry struct {
	Kind Kind

	// Name-table offset, shared by all three variants.
	NameOffset uint32

	// Directory fields.
	EntriesIndex uint32
	EntriesCount uint32

	// Binary/resource file fields.
	OnDiskSize         uint32
	PayloadBlockOffset uint32
	UncompressedSize   uint32
	EncryptionType     uint8

	// Resource-only fields.
	SystemFlags   uint32
	GraphicsFlags uint32

	// Resolved after decode.
	Name      string
	NameLower string
	Path      string
	Index     int
	Parent    *Entry
	Archive   *Archive
	Children  []*Entry
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// IsResource reports whether the entry is a resource file. Resource files
// are never deflate-compressed: their uncompressed size always equals their
// on-disk size.
func (e *Entry) IsResource() bool {
	return e.Kind == KindResourceFile
}

// decodeEntry decodes one 16-byte entries-table record. It does not resolve
// the entry's name or hierarchy links; callers fill those in once the names
// table and full entries array are available.
func decodeEntry(raw []byte) (*Entry, error) {
	if len(raw) != consts.RPF7EntrySize {
		return nil, fmt.Errorf("rpf7: entry record must be %d bytes, got %d", consts.RPF7EntrySize, len(raw))
	}

	// h2, the discriminating "second 32-bit word", lives at bytes[4:8) in
	// every record regardless of kind. Directory records are four plain
	// aligned uint32 fields (no bit-packing); binary/resource records
	// reinterpret the whole 16 bytes as two bit-packed 64-bit words d1, d2,
	// so h2 for those variants is just whatever bits happen to fall there
	// and carries no independent meaning beyond "not the sentinel".
	h2 := bitpack.Uint32LE(raw[4:8])

	if h2 == consts.DirectorySentinel {
		return &Entry{
			Kind:         KindDirectory,
			NameOffset:   bitpack.Uint32LE(raw[0:4]),
			EntriesIndex: bitpack.Uint32LE(raw[8:12]),
			EntriesCount: bitpack.Uint32LE(raw[12:16]),
		}, nil
	}

	d1 := bitpack.Uint64LE(raw[0:8])
	d2 := bitpack.Uint64LE(raw[8:16])

	// Binary/resource layout: d1 is shared; d2's top bit (bit 63) selects
	// resource vs. binary.
	nameOffset := bitpack.Field32(d1, 0, 16)
	onDiskSize := bitpack.Field32(d1, 16, 40)
	payloadBlockOffset := bitpack.Field32(d1, 40, 64)

	isResource := bitpack.Field(d2, 63, 64) != 0

	if isResource {
		return &Entry{
			Kind:               KindResourceFile,
			NameOffset:         nameOffset,
			OnDiskSize:         onDiskSize,
			PayloadBlockOffset: payloadBlockOffset,
			SystemFlags:        bitpack.Field32(d2, 0, 32),
			GraphicsFlags:      bitpack.Field32(d2, 32, 64) &^ (1 << 31),
		}, nil
	}

	if bitpack.Field(d2, 32, 64) != 0 {
		return nil, fmt.Errorf("%w: d2 high bits = 0x%08X", ErrInvalidBinaryEntry, bitpack.Field32(d2, 32, 64))
	}

	return &Entry{
		Kind:               KindBinaryFile,
		NameOffset:         nameOffset,
		OnDiskSize:         onDiskSize,
		PayloadBlockOffset: payloadBlockOffset,
		UncompressedSize:   bitpack.Field32(d2, 0, 24),
		EncryptionType:     uint8(bitpack.Field(d2, 24, 32)),
	}, nil
}

// resolveName reads a NUL-terminated byte string out of the names table
// starting at offset, returning an error if the offset lies outside the
// buffer.
func resolveName(names []byte, offset uint32) (string, error) {
	if int(offset) > len(names) {
		return "", fmt.Errorf("%w: offset %d, table length %d", ErrNamesOverrun, offset, len(names))
	}
	rest := names[offset:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: name at offset %d has no terminator", ErrNamesOverrun, offset)
	}
	return string(rest[:end]), nil
}
