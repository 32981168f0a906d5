// Package tagfile resolves symbolic reference names against documentation
// tag files - XML documents enumerating the compounds (pages, sections,
// classes) of a generated documentation set together with their target
// pages and in-file anchors. An index built from one or more tag files
// backs the reference resolution the SVG patcher depends on.
package tagfile

import (
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"

	"svp/svg"
)

// DefaultExtension is appended to target page names that carry no extension
// of their own.
const DefaultExtension = ".html"

type entry struct {
	file     string
	anchor   string
	base     string
	external bool
}

// Index is an in-memory reference index. It is populated once during
// startup and is a pure query structure afterwards - Resolve never mutates
// it.
type Index struct {
	ext     string
	entries map[string]entry
	slugged map[string]string
}

// NewIndex creates an empty index. ext is the extension used to qualify
// target page names, DefaultExtension when empty.
func NewIndex(ext string) *Index {
	if len(ext) == 0 {
		ext = DefaultExtension
	}
	return &Index{
		ext:     ext,
		entries: make(map[string]entry),
		slugged: make(map[string]string),
	}
}

// Len returns number of indexed names.
func (ix *Index) Len() int {
	return len(ix.entries)
}

func (ix *Index) add(name string, e entry) {
	if len(name) == 0 {
		return
	}
	if _, exists := ix.entries[name]; exists {
		// first definition wins, same as the generator's own lookup
		return
	}
	ix.entries[name] = e
	if s := slug.Make(name); len(s) > 0 {
		if _, exists := ix.slugged[s]; !exists {
			ix.slugged[s] = name
		}
	}
}

// LoadTagFile parses the tag file at tagPath and merges its compounds and
// members into the index. A non-empty baseURL marks every entry of this
// file as belonging to an external documentation set rooted at that URL.
//
// Expected shape:
//
//	<tagfile>
//	  <compound kind="page">
//	    <name>installation</name>
//	    <filename>install</filename>
//	    <member kind="section">
//	      <name>installation::windows</name>
//	      <anchorfile>install</anchorfile>
//	      <anchor>autotoc_windows</anchor>
//	    </member>
//	  </compound>
//	</tagfile>
func (ix *Index) LoadTagFile(tagPath, baseURL string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(tagPath); err != nil {
		return fmt.Errorf("unable to read tag file (%s): %w", tagPath, err)
	}

	root := doc.SelectElement("tagfile")
	if root == nil {
		return fmt.Errorf("not a tag file, no root element (%s)", tagPath)
	}

	external := len(baseURL) > 0
	if external && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	for _, compound := range root.SelectElements("compound") {
		e := entry{
			file:     elementText(compound, "filename"),
			anchor:   elementText(compound, "anchor"),
			base:     baseURL,
			external: external,
		}
		ix.add(elementText(compound, "name"), e)

		for _, member := range compound.SelectElements("member") {
			me := entry{
				file:     elementText(member, "anchorfile"),
				anchor:   elementText(member, "anchor"),
				base:     baseURL,
				external: external,
			}
			if len(me.file) == 0 {
				// members inherit their compound's page
				me.file = e.file
			}
			ix.add(elementText(member, "name"), me)
		}
	}
	return nil
}

func elementText(parent *etree.Element, name string) string {
	if el := parent.SelectElement(name); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// Resolve implements svg.Resolver. Lookup order: name qualified by the
// resolution context, the bare name, then a slug-normalized fallback so
// captions that drifted in case or spacing still match. An unknown name
// yields a zero descriptor which the patcher treats as unresolved.
func (ix *Index) Resolve(name, context, relPath string) svg.Ref {
	e, ok := ix.lookup(name, context)
	if !ok {
		return svg.Ref{}
	}

	prefix := relPath
	if e.external {
		prefix = e.base
	}
	return svg.Ref{
		File:     EnsureExtension(e.file, ix.ext),
		Anchor:   e.anchor,
		External: e.external,
		Prefix:   prefix,
	}
}

func (ix *Index) lookup(name, context string) (entry, bool) {
	if len(context) > 0 {
		if e, ok := ix.entries[context+"::"+name]; ok {
			return e, true
		}
	}
	if e, ok := ix.entries[name]; ok {
		return e, true
	}
	if full, ok := ix.slugged[slug.Make(name)]; ok {
		return ix.entries[full], true
	}
	return entry{}, false
}

// EnsureExtension qualifies a target page name with ext unless the name is
// empty or already carries an extension.
func EnsureExtension(name, ext string) string {
	if len(name) == 0 || len(path.Ext(name)) > 0 {
		return name
	}
	return name + ext
}
