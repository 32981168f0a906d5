package patch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

var zipMagic = []byte("PK\x03\x04")

// isArchiveFile sniffs file magic to see if path is a zip archive.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	n, err := f.Read(head)
	if err != nil {
		return false, nil
	}
	return bytes.Equal(head[:n], zipMagic), nil
}

// isSVGFile decides whether path should be considered for patching. The
// check is deliberately cheap: extension first, then a sniff of the leading
// bytes for markup. Real gating on bare references happens inside the
// patcher itself.
func isSVGFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".svg") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil {
		return false, nil
	}
	lead := strings.TrimLeft(string(head[:n]), " \t\r\n\uFEFF")
	return strings.HasPrefix(lead, "<?xml") || strings.HasPrefix(lead, "<svg") || strings.HasPrefix(lead, "<!DOCTYPE"), nil
}
