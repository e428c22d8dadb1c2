package filesystem

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorpf/rpf-kit/pkg/rpf7"
)

// NewEntry wraps an rpf7.Entry with the reader needed to materialize its
// bytes, giving collaborators a single-namespace view independent of the
// archive format's tagged-union fields.
func NewEntry(entry *rpf7.Entry, reader io.ReaderAt) *Entry {
	size := entry.UncompressedSize
	if size == 0 {
		size = entry.OnDiskSize
	}
	return &Entry{
		Name:     entry.Name,
		FullPath: strings.ReplaceAll(entry.Path, "\\", "/"),
		IsDir:    entry.IsDir(),
		Size:     size,
		entry:    entry,
		reader:   reader,
	}
}

// Entry is a generic virtual-filesystem view over one rpf7.Entry.
type Entry struct {
	// Name is the entry's own name, without any path component.
	Name string `json:"name"`
	// FullPath is the forward-slash path from the owning archive's root.
	FullPath string `json:"full_path"`
	// IsDir reports whether the entry is a directory.
	IsDir bool `json:"is_dir"`
	// Size is the entry's uncompressed byte size; zero for directories.
	Size uint32 `json:"size"`

	entry  *rpf7.Entry
	reader io.ReaderAt
}

// RawEntry returns the underlying rpf7.Entry this wrapper decorates.
func (e *Entry) RawEntry() *rpf7.Entry {
	return e.entry
}

// GetBytes runs the entry through the data pipeline, returning its decrypted
// and (if applicable) decompressed bytes.
func (e *Entry) GetBytes() ([]byte, error) {
	if e.IsDir {
		return nil, fmt.Errorf("cannot get bytes for a directory: %s", e.FullPath)
	}
	return rpf7.ReadFile(e.reader, e.entry)
}

// ExtractToDisk writes the entry's bytes (or, for a directory, an empty
// directory) under outputDir at its FullPath.
func (e *Entry) ExtractToDisk(outputDir string) error {
	outputPath := filepath.Join(outputDir, filepath.FromSlash(e.FullPath))

	if e.IsDir {
		return os.MkdirAll(outputPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", outputPath, err)
	}

	data, err := e.GetBytes()
	if err != nil {
		return fmt.Errorf("failed to read file data for %s: %w", e.FullPath, err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer outFile.Close()

	if _, err := outFile.Write(data); err != nil {
		return fmt.Errorf("failed to write file %s: %w", outputPath, err)
	}

	return nil
}

// GetMD5 computes the MD5 hash of the entry's bytes, hex-encoded.
func (e *Entry) GetMD5() (string, error) {
	if e.IsDir {
		return "", fmt.Errorf("cannot compute MD5 for a directory: %s", e.FullPath)
	}
	data, err := e.GetBytes()
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// GetSHA256 computes the SHA-256 hash of the entry's bytes, hex-encoded.
func (e *Entry) GetSHA256() (string, error) {
	if e.IsDir {
		return "", fmt.Errorf("cannot compute SHA-256 for a directory: %s", e.FullPath)
	}
	data, err := e.GetBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
