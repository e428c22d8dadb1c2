package rpf7

import "errors"

// Structural errors: the affected archive is unreadable but a scan over
// many archives should log these and continue with the rest.
var (
	ErrInvalidVersion       = errors.New("rpf7: invalid version tag")
	ErrInvalidDirectoryEntry = errors.New("rpf7: directory entry sentinel mismatch")
	ErrInvalidBinaryEntry   = errors.New("rpf7: binary entry reserved bits nonzero")
	ErrTruncated            = errors.New("rpf7: read ran past end of backing file")
	ErrNamesOverrun         = errors.New("rpf7: entry name offset outside names table")
)

// Cryptographic errors.
var (
	ErrUnsupportedEncryption = errors.New("rpf7: NG encryption requires unavailable key material")
	ErrDecryptInconsistent   = errors.New("rpf7: AES block decryption failed")
)

// I/O errors surfaced per read operation.
var (
	ErrReadTruncated = errors.New("rpf7: payload read shorter than on-disk size")
)

// Usage errors returned directly to callers.
var (
	ErrEntryNotFile = errors.New("rpf7: entry is not a file")
	ErrNotFound     = errors.New("rpf7: entry not found")
)

// Decompression errors.
var (
	ErrInflateFailed         = errors.New("rpf7: deflate decompression failed")
	ErrInflateLengthMismatch = errors.New("rpf7: inflated size does not match uncompressed size")
)
