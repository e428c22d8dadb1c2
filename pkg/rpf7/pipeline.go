package rpf7

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"

	"github.com/gorpf/rpf-kit/pkg/consts"
	"github.com/gorpf/rpf-kit/pkg/rpfcrypto"
)

// flateReaderPool reuses klauspost/compress/flate readers across ReadFile
// calls; every compressed entry needs a fresh inflate stream and allocating
// a decoder per read would dominate the cost of small-file extraction.
var flateReaderPool = sync.Pool{
	New: func() interface{} {
		return flate.NewReader(nil)
	},
}

// ReadFile materializes a file entry's bytes: a scoped positioned read of
// on_disk_size bytes, followed by archive-mode decryption (if the entry
// requests it) and deflate inflation (if the entry's uncompressed_size says
// it was compressed). It is defined only for binary and resource entries.
func ReadFile(r io.ReaderAt, entry *Entry) ([]byte, error) {
	if entry.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFile, entry.Path)
	}
	archive := entry.Archive

	payloadOffset := archive.StartOffset + int64(entry.PayloadBlockOffset)*consts.PayloadBlockSize
	raw := make([]byte, entry.OnDiskSize)
	if err := readFull(r, raw, payloadOffset); err != nil {
		return nil, fmt.Errorf("rpf7: read %s: %w", entry.Path, ErrReadTruncated)
	}

	if entry.EncryptionType != 0 {
		decrypted, err := decryptPayload(archive, entry, raw)
		if err != nil {
			return nil, fmt.Errorf("rpf7: read %s: %w", entry.Path, err)
		}
		raw = decrypted
	}

	if entry.IsResource() {
		return raw, nil
	}

	if entry.UncompressedSize > 0 && entry.UncompressedSize != entry.OnDiskSize {
		return inflate(raw, entry.UncompressedSize, entry.Path)
	}

	return raw, nil
}

// decryptPayload applies the archive's encryption mode to a single entry's
// payload. AES uses the shared block cipher; NG XORs against a keystream
// keyed on the entry's own name and uncompressed size, distinct from the
// archive-wide TOC keystream, which Open keys on the backing file's name and
// the combined byte length of the entries and names tables (not the size of
// the whole archive).
func decryptPayload(archive *Archive, entry *Entry, raw []byte) ([]byte, error) {
	switch archive.EncryptionMode {
	case consts.EncryptionAES:
		return archive.cipher.Decrypt(raw), nil
	case consts.EncryptionNG:
		stream, err := archive.keystream.Keystream(rpfcrypto.NormalizeKeyName(entry.Name), entry.UncompressedSize)
		if err != nil {
			return nil, ErrUnsupportedEncryption
		}
		return rpfcrypto.XORKeystream(raw, stream), nil
	default:
		return raw, nil
	}
}

// inflate decompresses a raw deflate stream and verifies its length matches
// uncompressedSize exactly, per the pipeline's no-silent-truncation policy.
func inflate(raw []byte, uncompressedSize uint32, path string) ([]byte, error) {
	rc := flateReaderPool.Get().(io.ReadCloser)
	defer flateReaderPool.Put(rc)

	if err := rc.(flate.Resetter).Reset(&sliceReader{b: raw}, nil); err != nil {
		return nil, fmt.Errorf("rpf7: inflate %s: %w", path, ErrInflateFailed)
	}

	out := make([]byte, uncompressedSize)
	n, err := io.ReadFull(rc, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("rpf7: inflate %s: %w: %v", path, ErrInflateFailed, err)
	}
	if uint32(n) != uncompressedSize {
		return nil, fmt.Errorf("rpf7: inflate %s: %w: got %d, want %d", path, ErrInflateLengthMismatch, n, uncompressedSize)
	}
	var extra [1]byte
	if m, _ := io.ReadFull(rc, extra[:]); m > 0 {
		return nil, fmt.Errorf("rpf7: inflate %s: %w: stream longer than %d bytes", path, ErrInflateLengthMismatch, uncompressedSize)
	}

	return out, nil
}

// sliceReader adapts a []byte to io.Reader; flate.Reader.Reset takes an
// io.Reader and the pool needs a fresh one bound to each call's buffer.
type sliceReader struct {
	b []byte
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.b)
	s.b = s.b[n:]
	return n, nil
}
