package consts

const (
	// RPF7HeaderSize is the size in bytes of the fixed archive header.
	RPF7HeaderSize = 16

	// RPF7EntrySize is the size in bytes of a single entries-table record.
	RPF7EntrySize = 16

	// RPF7Version is the mandatory version tag, "RPF7" read little-endian.
	RPF7Version uint32 = 0x52504637

	// PayloadBlockSize is the unit in which PayloadBlockOffset is expressed.
	PayloadBlockSize = 512

	// DirectorySentinel is the h2 word that marks a directory entry, and the
	// sentinel word that must terminate a directory record.
	DirectorySentinel uint32 = 0x7FFFFF00

	// ResourceOnDiskSizeMarker is the on-disk size value that indicates a
	// resource entry's true size must be reconstructed from its flag fields.
	ResourceOnDiskSizeMarker = 0xFFFFFF

	// ArchiveExtension is the filename suffix that marks a file entry as a
	// nested archive worth recursing into.
	ArchiveExtension = ".rpf"
)

// EncryptionMode identifies which of the four RPF7 TOC/payload encryption
// schemes an archive uses.
type EncryptionMode uint32

const (
	EncryptionNone EncryptionMode = 0x00000000
	EncryptionOpen EncryptionMode = 0x4E45504F
	EncryptionAES  EncryptionMode = 0x0FFFFFF9
	EncryptionNG   EncryptionMode = 0x0FEFFFFF
)

// String returns a short human-readable label for the encryption mode,
// mainly for log lines.
func (m EncryptionMode) String() string {
	switch m {
	case EncryptionNone:
		return "NONE"
	case EncryptionOpen:
		return "OPEN"
	case EncryptionAES:
		return "AES"
	case EncryptionNG:
		return "NG"
	default:
		return "UNKNOWN"
	}
}
