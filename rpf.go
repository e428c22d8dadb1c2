// Package rpf is the top-level facade over the RPF7 archive parser and
// registry: Open a single archive directly, or use the package-level
// registry helpers to scan a directory tree of archives once and query them
// by logical path.
package rpf

import (
	"fmt"
	"os"

	"github.com/gorpf/rpf-kit/pkg/option"
	"github.com/gorpf/rpf-kit/pkg/registry"
	"github.com/gorpf/rpf-kit/pkg/rpf7"
)

// ArchiveFile pairs a parsed Archive with the open backing file descriptor
// its entries read through. Callers are responsible for calling Close once
// done with it and its nested archives.
type ArchiveFile struct {
	*rpf7.Archive
	file *os.File
}

// Open opens the RPF7 archive at path, parsing its header, entries table,
// names table, and hierarchy, and recursively opening any archives nested
// inside it.
func Open(path string, opts ...option.OpenOption) (*ArchiveFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rpf: open %s: %w", path, err)
	}

	archive, err := rpf7.Open(f, path, 0, option.NewOpenOptions(opts...))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &ArchiveFile{Archive: archive, file: f}, nil
}

// Close releases the backing file descriptor. Nested archives opened from
// the same file are closed along with it.
func (a *ArchiveFile) Close() error {
	return a.file.Close()
}

// ReadFile returns entry's decrypted, decompressed bytes. entry must belong
// to this archive or one of its descendants.
func (a *ArchiveFile) ReadFile(entry *rpf7.Entry) ([]byte, error) {
	return rpf7.ReadFile(a.file, entry)
}

// defaultRegistry backs the package-level registry helpers below, for
// callers who want a single process-wide archive index rather than managing
// a *registry.Registry themselves.
var defaultRegistry = registry.New()

// Init scans root for RPF7 archives and populates the default registry. See
// registry.Registry.Init for the scan and registration rules.
func Init(root string, opts ...option.InitOption) error {
	return defaultRegistry.Init(root, opts...)
}

// ListArchives returns every archive path registered by the last Init call.
func ListArchives() ([]string, error) {
	return defaultRegistry.ListArchives()
}

// ListDirectory lists the directories and files directly under innerPath
// within the named archive.
func ListDirectory(archivePath, innerPath string) (dirs, files []string, err error) {
	return defaultRegistry.ListDirectory(archivePath, innerPath)
}

// ReadFile returns the bytes of the file at innerPath within the named
// archive.
func ReadFile(archivePath, innerPath string) ([]byte, error) {
	return defaultRegistry.ReadFile(archivePath, innerPath)
}

// FileInfo returns metadata for the entry at innerPath within the named
// archive, without reading its bytes.
func FileInfo(archivePath, innerPath string) (*registry.Metadata, error) {
	return defaultRegistry.Info(archivePath, innerPath)
}

// Search finds every entry across every registered archive matching
// pattern. See registry.Registry.Search for the matching rules.
func Search(pattern string) ([]registry.SearchResult, error) {
	return defaultRegistry.Search(pattern)
}

// DirectoryTree builds a nested tree rooted at innerPath within the named
// archive, descending at most maxDepth levels (maxDepth < 0 for unlimited).
func DirectoryTree(archivePath, innerPath string, maxDepth int) (*registry.TreeNode, error) {
	return defaultRegistry.Tree(archivePath, innerPath, maxDepth)
}
