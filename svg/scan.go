package svg

import (
	"regexp"
	"strings"
)

// Bare reference spellings the diagram generator emits when it cannot
// resolve a cross-document link itself. Order matters: the plain spelling is
// checked first and wins exact position ties.
var refNeedles = [...]string{`href="\ref"`, `xlink:href="\ref"`}

// HasBareRefs reports whether content contains at least one bare reference
// in either spelling. Callers must skip the file entirely when it returns
// false - later stages assume at least one match exists.
func HasBareRefs(content string) bool {
	for _, needle := range refNeedles {
		if strings.Contains(content, needle) {
			return true
		}
	}
	return false
}

// nextBareRef returns position of the leftmost bare reference at or after
// from, or false when there are no more.
func nextBareRef(content string, from int) (int, bool) {
	pos := -1
	for _, needle := range refNeedles {
		p := strings.Index(content[from:], needle)
		if p < 0 {
			continue
		}
		if p += from; pos < 0 || p < pos {
			pos = p
		}
	}
	return pos, pos >= 0
}

// anchorSpan delimits one anchor element in the buffer: openStart is the
// position of "<a", openEnd the position of the closing '>' of the opening
// tag, and close the position of the matching "</a>".
// Invariant: openStart <= openEnd < close.
type anchorSpan struct {
	openStart int
	openEnd   int
	close     int
}

// findAnchorSpan delimits the anchor element enclosing the bare reference at
// refPos. This is a textual scan, not a tag-balanced one: the nearest "<a"
// before the reference is taken as the opening tag, which is correct only
// because the generator never nests anchors. Returns false for anything
// malformed - an unmatched open or close, or an opening tag that does not
// end before the close tag starts.
func findAnchorSpan(content string, refPos int) (anchorSpan, bool) {
	openStart := strings.LastIndex(content[:refPos], "<a")
	if openStart < 0 {
		return anchorSpan{}, false
	}
	close := strings.Index(content[refPos:], "</a>")
	if close < 0 {
		return anchorSpan{}, false
	}
	close += refPos
	openEnd := strings.Index(content[openStart:], ">")
	if openEnd < 0 {
		return anchorSpan{}, false
	}
	if openEnd += openStart; openEnd >= close {
		return anchorSpan{}, false
	}
	return anchorSpan{openStart: openStart, openEnd: openEnd, close: close}, true
}

// captionRe matches the first embedded caption element - an immediate text
// run inside <text ...> with no nested markup.
var captionRe = regexp.MustCompile(`<text[^>]*>([^<]+)</text>`)

// extractRefName pulls the symbolic reference name from the content between
// the anchor's opening and closing tags. Only the first caption is
// considered. Returns empty string when there is none.
func extractRefName(anchorContent string) string {
	m := captionRe.FindStringSubmatch(anchorContent)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// escapeJSString prepares a reference name for embedding inside a
// single-quoted script literal. Backslashes must be escaped before quotes -
// the other order would double-escape the backslashes just inserted.
func escapeJSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
