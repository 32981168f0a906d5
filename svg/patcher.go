// Package svg patches SVG files produced by the diagram generator.
//
// The generator emits cross-document links it cannot resolve as bare
// `href="\ref"` (or `xlink:href="\ref"`) attributes, with the intended
// reference name present only as the visible caption inside the same anchor
// element. This package locates every such anchor, recovers the name from
// the caption, resolves it through an injected Resolver and rewrites the
// anchor's opening tag in place - either to the resolved URL or, when the
// name does not resolve, to an inert link with a client-side notification
// hook so the hosting page can react at render time.
//
// The scan is deliberately textual: delimiting a single anchor element needs
// only substring searches and does not justify a full XML parser.
package svg

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Ref is the outcome of resolving a symbolic reference name. A reference
// counts as resolved iff File or Anchor is non-empty. File arrives already
// extension-qualified and Prefix already accounts for the relative path base
// of the document being patched - both are the resolver's business, not
// ours.
type Ref struct {
	File     string
	Anchor   string
	External bool
	Prefix   string
}

// Resolved reports whether the descriptor points anywhere at all.
func (r Ref) Resolved() bool {
	return len(r.File) > 0 || len(r.Anchor) > 0
}

// Resolver maps a symbolic reference name plus ambient resolution context
// into a reference descriptor. Implementations must be pure queries with no
// visible side effects on resolution state.
type Resolver interface {
	Resolve(name, context, relPath string) Ref
}

// Patcher rewrites bare references in a single SVG file.
type Patcher struct {
	path           string
	relPath        string
	context        string
	res            Resolver
	log            *zap.Logger
	keepUnresolved bool
}

// Option adjusts patcher behavior.
type Option func(*Patcher)

// KeepUnresolved leaves anchors with unresolvable references untouched
// instead of rewriting them to inert links. Intended for troubleshooting
// reference indexes - the placeholders stay visible in the output.
func KeepUnresolved() Option {
	return func(p *Patcher) { p.keepUnresolved = true }
}

// NewPatcher creates a patcher for the SVG file at path. relPath is the
// relative path base for resolved links and context the ambient scope used
// to disambiguate reference names.
func NewPatcher(path, relPath, context string, res Resolver, log *zap.Logger, opts ...Option) *Patcher {
	p := &Patcher{path: path, relPath: relPath, context: context, res: res, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads the file, patches every bare reference it contains and writes
// the result back. A file without bare references is left untouched - not
// even rewritten with identical content. Only I/O failures surface as
// errors; malformed anchors inside the file are skipped individually.
func (p *Patcher) Run() error {
	p.log.Debug("Patching file", zap.String("file", p.path))

	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("unable to read svg for patching (%s): %w", p.path, err)
	}
	content := string(data)

	if !HasBareRefs(content) {
		p.log.Debug("No bare refs found", zap.String("file", p.path))
		return nil
	}

	patched := p.patchBareRefs(content)
	if patched == content {
		// possible only when every candidate anchor was skipped or kept
		return nil
	}

	if err := os.WriteFile(p.path, []byte(patched), 0644); err != nil {
		return fmt.Errorf("unable to write patched svg (%s): %w", p.path, err)
	}
	p.log.Debug("Successfully patched", zap.String("file", p.path))
	return nil
}

// patchBareRefs processes all bare references in content. The buffer
// changes length after each rewrite, so the loop threads an explicit search
// cursor which is always advanced past whatever was just handled -
// rewritten region or skipped occurrence - guaranteeing termination.
func (p *Patcher) patchBareRefs(content string) string {
	cursor := 0
	for {
		refPos, ok := nextBareRef(content, cursor)
		if !ok {
			break
		}

		span, ok := findAnchorSpan(content, refPos)
		if !ok {
			cursor = refPos + 1
			continue
		}

		openingTag := content[span.openStart : span.openEnd+1]
		refName := extractRefName(content[span.openEnd+1 : span.close])
		if len(refName) == 0 {
			p.log.Debug("Could not extract ref name from anchor content", zap.String("file", p.path))
			cursor = refPos + 1
			continue
		}

		ref := p.res.Resolve(refName, p.context, p.relPath)

		var newTag string
		if ref.Resolved() {
			url := buildURL(ref)
			newTag = rewriteResolved(openingTag, url)
			p.log.Debug("Replaced ref with URL", zap.String("ref", refName), zap.String("url", url))
		} else if p.keepUnresolved {
			p.log.Debug("Ref unresolved, leaving anchor untouched", zap.String("ref", refName))
			// skip the whole anchor - a second placeholder spelling in the
			// same opening tag must not trigger another resolution
			cursor = span.close + len("</a>")
			continue
		} else {
			newTag = rewriteUnresolved(openingTag, refName)
			p.log.Debug("Ref unresolved, added onclick handler", zap.String("ref", refName))
		}

		// splice the rewritten opening tag over the original span and
		// resume scanning right past it
		content = content[:span.openStart] + newTag + content[span.openEnd+1:]
		cursor = span.openStart + len(newTag)
	}
	return content
}

// buildURL assembles the destination URL from a resolved descriptor:
// external scope prefix, then the extension-qualified file if present, then
// the in-file anchor if present. File-only, anchor-only and both are all
// valid - a resolved descriptor cannot lack both. The URL is inserted
// verbatim, no attribute escaping is applied.
func buildURL(ref Ref) string {
	url := ref.Prefix
	if len(ref.File) > 0 {
		url += ref.File
	}
	if len(ref.Anchor) > 0 {
		url += "#" + ref.Anchor
	}
	return url
}

// rewriteResolved binds every bare reference attribute present in the
// opening tag to url. Both spellings share one code path: the plain needle
// is a substring of the namespaced one, so replacing it first also covers
// tags carrying both attributes.
func rewriteResolved(openingTag, url string) string {
	for _, needle := range refNeedles {
		if !strings.Contains(openingTag, needle) {
			continue
		}
		repl := strings.Replace(needle, `\ref`, url, 1)
		openingTag = strings.ReplaceAll(openingTag, needle, repl)
	}
	return openingTag
}

// rewriteUnresolved points every bare reference attribute at the null
// fragment and appends a single onclick handler, inserted immediately
// before the final '>' of the opening tag, that posts a structured message
// to the parent document so the hosting page can surface the unresolved
// link.
func rewriteUnresolved(openingTag, refName string) string {
	for _, needle := range refNeedles {
		if !strings.Contains(openingTag, needle) {
			continue
		}
		repl := strings.Replace(needle, `\ref`, "#", 1)
		openingTag = strings.ReplaceAll(openingTag, needle, repl)
	}

	handler := "window.parent.postMessage({type:'unresolved-ref',name:'" + escapeJSString(refName) + "'},'*');return false;"
	if bracket := strings.LastIndex(openingTag, ">"); bracket >= 0 {
		openingTag = openingTag[:bracket] + ` onclick="` + handler + `"` + openingTag[bracket:]
	}
	return openingTag
}
