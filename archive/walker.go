// Package archive reads SVG payloads out of zip containers. Generated
// documentation often ships as an archive; the walker lets the patcher
// iterate eligible members without extracting the whole set first.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is called for every archive member selected by Walk. The archive
// argument is the path passed to Walk, f the member entry. A non-nil error
// stops the walk and is returned to the caller.
type WalkFunc func(archive string, f *zip.File) error

// Walk iterates regular members of the zip archive that live under root and
// carry the ext extension, calling walkFn for each. The extension is matched
// case-insensitively against the raw member name; empty ext selects every
// member. Directory entries are never reported. A member with an absolute
// name or a ".." component aborts the walk - such entries could escape the
// extraction directory (Zip Slip).
func Walk(archive, root, ext string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, root) {
			continue
		}
		if len(ext) > 0 && !strings.EqualFold(path.Ext(name), ext) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for member names that could escape the
// extraction directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
