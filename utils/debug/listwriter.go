// Package debug renders the plain text listings stored in debug report
// archives.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// ListWriter accumulates an indented listing, one node per line. It backs
// the diagnostics dumped into debug reports - reference index content and
// the like - where output must stay stable and grep-friendly.
type ListWriter struct {
	b      strings.Builder
	indent string
}

// NewListWriter creates a writer using the supplied indentation unit, two
// spaces when empty.
func NewListWriter(indent string) *ListWriter {
	if len(indent) == 0 {
		indent = "  "
	}
	return &ListWriter{indent: indent}
}

func (lw *ListWriter) String() string {
	return lw.b.String()
}

// Itemf appends one formatted node at the given depth.
func (lw *ListWriter) Itemf(depth int, format string, args ...any) {
	for range depth {
		lw.b.WriteString(lw.indent)
	}
	fmt.Fprintf(&lw.b, format, args...)
	lw.b.WriteByte('\n')
}

// Quoted appends a labeled value rendered as a quoted Go string literal, so
// names with spaces or control characters survive the report intact and
// empty values stay visible.
func (lw *ListWriter) Quoted(depth int, label, value string) {
	lw.Itemf(depth, "%s: %s", label, strconv.Quote(value))
}
