package rpf7

import (
	"fmt"
	"io"
	"strings"

	"github.com/gorpf/rpf-kit/pkg/consts"
	"github.com/gorpf/rpf-kit/pkg/option"
)

// scanNested walks archive's tree once hierarchy has been built and opens a
// child Archive for every file entry whose lowercased name ends in the
// archive extension. Each child is opened at the same backing file, at the
// byte offset its parent's payload_block_offset resolves to.
//
// A nested archive that fails to open is logged as an error and skipped
// rather than failing the whole Open, unless opts.FailFastOnNestedError is
// set, mirroring the registry's own per-archive failure tolerance for the
// top-level scan.
func scanNested(r io.ReaderAt, archive *Archive, opts *option.OpenOptions) error {
	var walk func(e *Entry) error
	walk = func(e *Entry) error {
		if e.IsDir() {
			for _, child := range e.Children {
				if err := walk(child); err != nil {
					return err
				}
			}
			return nil
		}

		if !strings.HasSuffix(e.NameLower, consts.ArchiveExtension) {
			return nil
		}

		childOffset := archive.StartOffset + int64(e.PayloadBlockOffset)*consts.PayloadBlockSize
		child, err := Open(r, archive.BackingPath, childOffset, opts)
		if err != nil {
			if opts != nil && opts.FailFastOnNestedError {
				return fmt.Errorf("nested archive %s: %w", e.Path, err)
			}
			if archive.logger != nil {
				archive.logger.Error(err, "failed to open nested archive", "path", e.Path)
			}
			return nil
		}

		child.Parent = archive
		archive.Children = append(archive.Children, child)
		archive.ChildNames = append(archive.ChildNames, e.Name)
		return nil
	}

	return walk(archive.Root)
}
