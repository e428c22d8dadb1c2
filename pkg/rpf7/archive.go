package rpf7

import (
	"fmt"
	"io"
	"strings"

	"github.com/gorpf/rpf-kit/pkg/bitpack"
	"github.com/gorpf/rpf-kit/pkg/consts"
	"github.com/gorpf/rpf-kit/pkg/logging"
	"github.com/gorpf/rpf-kit/pkg/option"
	"github.com/gorpf/rpf-kit/pkg/rpfcrypto"
)

// Archive is a parsed RPF7 archive: a header, a flat entries array, and the
// tree built from it. An Archive never owns an open file descriptor; every
// read against its backing file is independently scoped.
type Archive struct {
	BackingPath string
	StartOffset int64
	Size        int64

	Version        uint32
	EntryCount     uint32
	NamesLength    uint32
	EncryptionMode consts.EncryptionMode

	Entries  []*Entry
	Root     *Entry
	Children []*Archive
	// ChildNames holds the triggering entry's name for each Children[i],
	// in the same order, so a registry key of the form <parent>/<name> can
	// be built without re-walking the tree.
	ChildNames []string
	Parent     *Archive

	cipher    *rpfcrypto.BlockCipher
	keystream rpfcrypto.KeystreamProvider
	logger    *logging.Logger
}

// Open parses the RPF7 archive beginning at startOffset within r, the
// backing file's full-range reader. r must support reads anywhere in the
// file; Open never assumes startOffset is 0.
func Open(r io.ReaderAt, backingPath string, startOffset int64, opts *option.OpenOptions) (*Archive, error) {
	if opts == nil {
		opts = &option.OpenOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	var keystream rpfcrypto.KeystreamProvider = opts.KeystreamProvider
	if keystream == nil {
		keystream = rpfcrypto.StubKeystreamProvider{}
	}

	rawHeader := make([]byte, consts.RPF7HeaderSize)
	if err := readFull(r, rawHeader, startOffset); err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	hdr, err := decodeHeader(rawHeader)
	if err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	cipher, err := rpfcrypto.NewBlockCipher()
	if err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	tocOffset := startOffset + consts.RPF7HeaderSize
	entriesLen := int64(hdr.EntryCount) * consts.RPF7EntrySize
	rawEntries := make([]byte, entriesLen)
	if err := readFull(r, rawEntries, tocOffset); err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	rawNames := make([]byte, hdr.NamesLength)
	if err := readFull(r, rawNames, tocOffset+entriesLen); err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	archiveName := archiveFileName(backingPath)

	switch hdr.EncryptionMode {
	case consts.EncryptionAES:
		rawEntries = cipher.Decrypt(rawEntries)
		rawNames = cipher.Decrypt(rawNames)
	case consts.EncryptionNG:
		stream, err := keystream.Keystream(rpfcrypto.NormalizeKeyName(archiveName), uint32(entriesLen+int64(hdr.NamesLength)))
		if err != nil {
			return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, ErrUnsupportedEncryption)
		}
		rawEntries = rpfcrypto.XORKeystream(rawEntries, stream)
		rawNames = rpfcrypto.XORKeystream(rawNames, stream)
	case consts.EncryptionNone, consts.EncryptionOpen:
		// verbatim
	default:
		return nil, fmt.Errorf("rpf7: open %s@%d: %w: mode 0x%08X", backingPath, startOffset, ErrUnsupportedEncryption, uint32(hdr.EncryptionMode))
	}

	archive := &Archive{
		BackingPath:    backingPath,
		StartOffset:    startOffset,
		Version:        hdr.Version,
		EntryCount:     hdr.EntryCount,
		NamesLength:    hdr.NamesLength,
		EncryptionMode: hdr.EncryptionMode,
		cipher:         cipher,
		keystream:      keystream,
		logger:         logger,
	}

	entries := make([]*Entry, hdr.EntryCount)
	for i := uint32(0); i < hdr.EntryCount; i++ {
		raw := rawEntries[i*consts.RPF7EntrySize : (i+1)*consts.RPF7EntrySize]
		if i == 0 && bitpack.Uint32LE(raw[4:8]) != consts.DirectorySentinel {
			return nil, fmt.Errorf("rpf7: open %s@%d: entry 0: %w", backingPath, startOffset, ErrInvalidDirectoryEntry)
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("rpf7: open %s@%d: entry %d: %w", backingPath, startOffset, i, err)
		}

		name, err := resolveName(rawNames, entry.NameOffset)
		if err != nil {
			return nil, fmt.Errorf("rpf7: open %s@%d: entry %d: %w", backingPath, startOffset, i, err)
		}
		entry.Name = name
		entry.NameLower = strings.ToLower(name)
		entry.Index = int(i)
		entry.Archive = archive

		if entry.IsResource() && entry.OnDiskSize == consts.ResourceOnDiskSizeMarker {
			entry.OnDiskSize = ResourceSize(entry.SystemFlags, entry.GraphicsFlags)
			entry.UncompressedSize = entry.OnDiskSize
		} else if entry.IsResource() {
			entry.UncompressedSize = entry.OnDiskSize
		}

		entries[i] = entry
	}
	archive.Entries = entries

	if len(entries) == 0 || !entries[0].IsDir() {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, ErrInvalidDirectoryEntry)
	}
	archive.Root = entries[0]
	entries[0].Path = ""

	if err := buildHierarchy(archive); err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	size := tocOffset + entriesLen + int64(hdr.NamesLength)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		end := startOffset + int64(e.PayloadBlockOffset)*consts.PayloadBlockSize + int64(e.OnDiskSize)
		if end > size {
			size = end
		}
	}
	archive.Size = size - startOffset

	if err := scanNested(r, archive, opts); err != nil {
		return nil, fmt.Errorf("rpf7: open %s@%d: %w", backingPath, startOffset, err)
	}

	return archive, nil
}

// buildHierarchy walks entries[entries_index:entries_index+entries_count)
// for every directory, assigning parent pointers and backslash-joined paths.
// Entry 0 (the root) seeds the walk with an empty path.
func buildHierarchy(archive *Archive) error {
	var walk func(dir *Entry) error
	walk = func(dir *Entry) error {
		end := dir.EntriesIndex + dir.EntriesCount
		if end > archive.EntryCount || end < dir.EntriesIndex {
			return fmt.Errorf("%w: range [%d,%d) exceeds entry count %d", ErrTruncated, dir.EntriesIndex, end, archive.EntryCount)
		}

		children := archive.Entries[dir.EntriesIndex:end]
		dir.Children = children
		for _, child := range children {
			child.Parent = dir
			if dir.Path == "" {
				child.Path = child.Name
			} else {
				child.Path = dir.Path + "\\" + child.Name
			}
			if child.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return walk(archive.Root)
}

// Find resolves a slash- or backslash-separated path within the archive,
// matching each segment case-insensitively, directories tried before files
// at each level. It returns nil if no entry matches.
func (a *Archive) Find(path string) *Entry {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.Trim(path, "/")
	if path == "" {
		return a.Root
	}

	segments := strings.Split(path, "/")
	current := a.Root
	for _, seg := range segments {
		segLower := strings.ToLower(seg)
		var next *Entry
		for _, child := range current.Children {
			if child.IsDir() && child.NameLower == segLower {
				next = child
				break
			}
		}
		if next == nil {
			for _, child := range current.Children {
				if !child.IsDir() && child.NameLower == segLower {
					next = child
					break
				}
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// readFull reads exactly len(buf) bytes at off, reporting ErrTruncated
// instead of io.EOF/io.ErrUnexpectedEOF when the backing file is shorter
// than expected.
func readFull(r io.ReaderAt, buf []byte, off int64) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return fmt.Errorf("%w: read %d of %d bytes at offset %d", ErrTruncated, n, len(buf), off)
}

// archiveFileName returns the base filename component of a backing path,
// used to key the TOC-level NG keystream.
func archiveFileName(backingPath string) string {
	idx := strings.LastIndexAny(backingPath, `/\`)
	if idx < 0 {
		return backingPath
	}
	return backingPath[idx+1:]
}
