package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gorpf/rpf-kit/pkg/consts"
	"github.com/gorpf/rpf-kit/pkg/filesystem"
	"github.com/gorpf/rpf-kit/pkg/logging"
	"github.com/gorpf/rpf-kit/pkg/option"
	"github.com/gorpf/rpf-kit/pkg/rpf7"
)

// record pairs a loaded archive with the still-open backing file every
// entry under it (including nested archives) reads through.
type record struct {
	archive *rpf7.Archive
	file    *os.File
}

// Metadata describes one entry without materializing its bytes.
type Metadata struct {
	Name     string
	FullPath string
	IsDir    bool
	Size     uint32
	Kind     string
}

// TreeNode is one node of a directory_tree result.
type TreeNode struct {
	Metadata
	Children []*TreeNode
}

// SearchResult locates one matching entry.
type SearchResult struct {
	ArchivePath string
	InnerPath   string
}

// Registry is a process-level mapping from normalized logical path to a
// loaded archive, populated by Init's filesystem scan. It is read-only after
// Init completes and safe for concurrent reads from multiple goroutines.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record
	inited  bool
	logger  *logging.Logger
}

// New returns an empty, uninitialized Registry.
func New() *Registry {
	return &Registry{records: make(map[string]*record)}
}

// Init scans the filesystem under root for files ending in the archive
// extension, opens each as a top-level archive, and registers it plus every
// archive nested inside it. A per-archive failure is logged and the scan
// continues with the rest of the tree.
func (r *Registry) Init(root string, opts ...option.InitOption) error {
	options := option.NewInitOptions(opts...)
	logger := options.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	ignored := make(map[string]struct{}, len(options.IgnoreDirNames))
	for _, name := range options.IgnoreDirNames {
		ignored[name] = struct{}{}
	}

	openOpts := option.NewOpenOptions(option.WithLogger(logger))
	if options.KeystreamProvider != nil {
		openOpts.KeystreamProvider = options.KeystreamProvider
	}

	records := make(map[string]*record)

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Error(err, "scan error", "path", path)
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || hasIgnoredName(d.Name(), ignored) {
				if path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), consts.ArchiveExtension) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			logger.Error(err, "failed to compute relative path", "path", path)
			return nil
		}
		logicalPath := filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			logger.Error(err, "failed to open archive", "path", path)
			return nil
		}

		archive, err := rpf7.Open(f, path, 0, openOpts)
		if err != nil {
			logger.Error(err, "failed to parse archive", "path", path)
			f.Close()
			return nil
		}

		registerTree(records, logicalPath, archive, f)
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("registry: scan %s: %w", root, walkErr)
	}

	r.mu.Lock()
	r.records = records
	r.inited = true
	r.logger = logger
	r.mu.Unlock()

	return nil
}

// registerTree inserts archive under logicalPath and recurses into its
// children, keyed under <logicalPath>/<child entry name>.
func registerTree(records map[string]*record, logicalPath string, archive *rpf7.Archive, f *os.File) {
	records[logicalPath] = &record{archive: archive, file: f}
	for i, child := range archive.Children {
		childPath := logicalPath + "/" + archive.ChildNames[i]
		registerTree(records, childPath, child, f)
	}
}

// ListArchives returns every registered archive's logical path, sorted.
func (r *Registry) ListArchives() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.inited {
		return nil, ErrNotInitialized
	}

	paths := make([]string, 0, len(r.records))
	for p := range r.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// FindEntry resolves archivePath and innerPath to an rpf7.Entry.
func (r *Registry) FindEntry(archivePath, innerPath string) (*rpf7.Entry, *rpf7.Archive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.inited {
		return nil, nil, ErrNotInitialized
	}

	rec, ok := r.records[archivePath]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	entry := rec.archive.Find(innerPath)
	if entry == nil {
		return nil, nil, fmt.Errorf("%w: %s!%s", ErrEntryNotFound, archivePath, innerPath)
	}
	return entry, rec.archive, nil
}

// ListDirectory returns the directory and file names directly under
// innerPath within the archive at archivePath.
func (r *Registry) ListDirectory(archivePath, innerPath string) (dirs, files []string, err error) {
	entry, _, err := r.FindEntry(archivePath, innerPath)
	if err != nil {
		return nil, nil, err
	}
	if !entry.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s!%s is not a directory", ErrInvalidPath, archivePath, innerPath)
	}

	for _, child := range entry.Children {
		if child.IsDir() {
			dirs = append(dirs, child.Name)
		} else {
			files = append(files, child.Name)
		}
	}
	return dirs, files, nil
}

// ReadFile returns the decrypted, decompressed bytes of the file at
// innerPath within the archive at archivePath.
func (r *Registry) ReadFile(archivePath, innerPath string) ([]byte, error) {
	entry, _, err := r.FindEntry(archivePath, innerPath)
	if err != nil {
		return nil, err
	}
	if entry.IsDir() {
		return nil, fmt.Errorf("%w: %s!%s", ErrEntryNotFile, archivePath, innerPath)
	}

	r.mu.RLock()
	rec := r.records[archivePath]
	r.mu.RUnlock()

	return rpf7.ReadFile(rec.file, entry)
}

// Info returns metadata for the entry at innerPath without reading its
// bytes.
func (r *Registry) Info(archivePath, innerPath string) (*Metadata, error) {
	entry, _, err := r.FindEntry(archivePath, innerPath)
	if err != nil {
		return nil, err
	}
	return entryMetadata(entry), nil
}

// Stat is an alias for Info, kept for callers that prefer filesystem-style
// naming.
func (r *Registry) Stat(archivePath, innerPath string) (*Metadata, error) {
	return r.Info(archivePath, innerPath)
}

// Search finds every entry across every registered archive whose name
// matches pattern. A pattern containing '*' is treated as a glob anchored at
// both ends; otherwise matching is a case-insensitive substring test.
func (r *Registry) Search(pattern string) ([]SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.inited {
		return nil, ErrNotInitialized
	}

	matcher, err := buildMatcher(pattern)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for archivePath, rec := range r.records {
		var walk func(e *rpf7.Entry)
		walk = func(e *rpf7.Entry) {
			if matcher(e.NameLower) {
				results = append(results, SearchResult{ArchivePath: archivePath, InnerPath: e.Path})
			}
			for _, child := range e.Children {
				walk(child)
			}
		}
		walk(rec.archive.Root)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ArchivePath != results[j].ArchivePath {
			return results[i].ArchivePath < results[j].ArchivePath
		}
		return results[i].InnerPath < results[j].InnerPath
	})
	return results, nil
}

// Tree builds a nested TreeNode structure rooted at innerPath, descending at
// most maxDepth levels. maxDepth < 0 means unlimited.
func (r *Registry) Tree(archivePath, innerPath string, maxDepth int) (*TreeNode, error) {
	entry, _, err := r.FindEntry(archivePath, innerPath)
	if err != nil {
		return nil, err
	}
	return buildTree(entry, maxDepth), nil
}

// Close closes every backing-file descriptor opened by Init (a file shared
// by nested archives is closed once), empties the registry and returns it to
// the uninitialized state, so later calls fail with ErrNotInitialized until
// the next Init. It returns the first close error, if any. Until Close, each
// top-level archive file stays open, and every read of it or of an archive
// nested in it goes through that one shared descriptor with positioned reads;
// reads do not open descriptors of their own.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	closed := make(map[*os.File]bool)
	for _, rec := range r.records {
		if closed[rec.file] {
			continue
		}
		closed[rec.file] = true
		if err := rec.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.records = make(map[string]*record)
	r.inited = false
	return firstErr
}

func buildTree(entry *rpf7.Entry, maxDepth int) *TreeNode {
	node := &TreeNode{Metadata: *entryMetadata(entry)}
	if !entry.IsDir() || maxDepth == 0 {
		return node
	}
	nextDepth := maxDepth - 1
	for _, child := range entry.Children {
		node.Children = append(node.Children, buildTree(child, nextDepth))
	}
	return node
}

func entryMetadata(entry *rpf7.Entry) *Metadata {
	size := entry.UncompressedSize
	if size == 0 {
		size = entry.OnDiskSize
	}
	return &Metadata{
		Name:     entry.Name,
		FullPath: strings.ReplaceAll(entry.Path, "\\", "/"),
		IsDir:    entry.IsDir(),
		Size:     size,
		Kind:     entry.Kind.String(),
	}
}

func buildMatcher(pattern string) (func(nameLower string) bool, error) {
	patternLower := strings.ToLower(pattern)
	if !strings.Contains(patternLower, "*") {
		return func(nameLower string) bool {
			return strings.Contains(nameLower, patternLower)
		}, nil
	}

	escaped := regexp.QuoteMeta(patternLower)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	re, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pattern %q", ErrInvalidPath, pattern)
	}
	return re.MatchString, nil
}

func hasIgnoredName(name string, ignored map[string]struct{}) bool {
	_, ok := ignored[name]
	return ok
}

// Entry adapts the resolved rpf7.Entry at archivePath!innerPath into the
// generic filesystem.Entry view, for collaborators that want GetBytes,
// GetMD5/GetSHA256, or ExtractToDisk rather than raw registry calls.
func (r *Registry) Entry(archivePath, innerPath string) (*filesystem.Entry, error) {
	entry, _, err := r.FindEntry(archivePath, innerPath)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	rec := r.records[archivePath]
	r.mu.RUnlock()

	return filesystem.NewEntry(entry, rec.file), nil
}
