package tagfile

import (
	"sort"

	"github.com/maruel/natural"

	"svp/utils/debug"
)

// Dump renders the index content for debug reports.
func (ix *Index) Dump() string {
	names := make([]string, 0, len(ix.entries))
	for name := range ix.entries {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	lw := debug.NewListWriter("")
	lw.Itemf(0, "reference index: %d entries, extension %q", len(ix.entries), ix.ext)
	for _, name := range names {
		e := ix.entries[name]
		lw.Quoted(1, name, e.file+"#"+e.anchor)
		if e.external {
			lw.Itemf(2, "external: %s", e.base)
		}
	}
	return lw.String()
}
