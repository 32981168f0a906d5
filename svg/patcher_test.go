package svg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

// fakeResolver returns canned descriptors keyed by reference name. Unknown
// names resolve to the zero descriptor, which the patcher treats as
// unresolved. Prefix handling mirrors the real resolver: relPath for
// everything that is not external.
type fakeResolver struct {
	refs map[string]Ref
}

func (f fakeResolver) Resolve(name, context, relPath string) Ref {
	r, ok := f.refs[name]
	if !ok {
		return Ref{}
	}
	if !r.External {
		r.Prefix = relPath
	}
	return r
}

func newPatcherForTest(t *testing.T, refs map[string]Ref, opts ...Option) *Patcher {
	t.Helper()
	return NewPatcher("test.svg", "", "", fakeResolver{refs: refs}, zaptest.NewLogger(t), opts...)
}

func TestPatchBareRefs_Resolved(t *testing.T) {
	p := newPatcherForTest(t, map[string]Ref{
		"foo": {File: "foo.html"},
	})

	in := `<a href="\ref"><text>foo</text></a>`
	want := `<a href="foo.html"><text>foo</text></a>`
	if got := p.patchBareRefs(in); got != want {
		t.Errorf("patchBareRefs() = %q, want %q", got, want)
	}
}

func TestPatchBareRefs_ResolvedVariants(t *testing.T) {
	tests := []struct {
		name string
		ref  Ref
		want string
	}{
		{"file only", Ref{File: "foo.html"}, `<a href="foo.html"><text>foo</text></a>`},
		{"anchor only", Ref{Anchor: "sect1"}, `<a href="#sect1"><text>foo</text></a>`},
		{"file and anchor", Ref{File: "foo.html", Anchor: "sect1"}, `<a href="foo.html#sect1"><text>foo</text></a>`},
		{"external", Ref{File: "foo.html", External: true, Prefix: "https://docs.example.org/"}, `<a href="https://docs.example.org/foo.html"><text>foo</text></a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPatcherForTest(t, map[string]Ref{"foo": tt.ref})
			in := `<a href="\ref"><text>foo</text></a>`
			if got := p.patchBareRefs(in); got != tt.want {
				t.Errorf("patchBareRefs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatchBareRefs_RelPath(t *testing.T) {
	p := NewPatcher("test.svg", "../../", "", fakeResolver{refs: map[string]Ref{
		"foo": {File: "foo.html"},
	}}, zaptest.NewLogger(t))

	in := `<a href="\ref"><text>foo</text></a>`
	want := `<a href="../../foo.html"><text>foo</text></a>`
	if got := p.patchBareRefs(in); got != want {
		t.Errorf("patchBareRefs() = %q, want %q", got, want)
	}
}

func TestPatchBareRefs_Unresolved(t *testing.T) {
	p := newPatcherForTest(t, nil)

	in := `<a href="\ref"><text>foo</text></a>`
	want := `<a href="#" onclick="window.parent.postMessage({type:'unresolved-ref',name:'foo'},'*');return false;"><text>foo</text></a>`
	if got := p.patchBareRefs(in); got != want {
		t.Errorf("patchBareRefs() = %q, want %q", got, want)
	}
}

func TestPatchBareRefs_UnresolvedEscaping(t *testing.T) {
	p := newPatcherForTest(t, nil)

	in := `<a href="\ref"><text>a\b'c</text></a>`
	got := p.patchBareRefs(in)
	// backslashes are escaped before quotes - the other order would
	// double-escape the inserted backslashes
	if !strings.Contains(got, `name:'a\\b\'c'`) {
		t.Errorf("escaped name not found in %q", got)
	}
}

func TestPatchBareRefs_DualAttribute(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		p := newPatcherForTest(t, map[string]Ref{"foo": {File: "foo.html"}})

		in := `<a href="\ref" xlink:href="\ref"><text>foo</text></a>`
		want := `<a href="foo.html" xlink:href="foo.html"><text>foo</text></a>`
		if got := p.patchBareRefs(in); got != want {
			t.Errorf("patchBareRefs() = %q, want %q", got, want)
		}
	})

	t.Run("unresolved gets one shared onclick", func(t *testing.T) {
		p := newPatcherForTest(t, nil)

		in := `<a href="\ref" xlink:href="\ref"><text>foo</text></a>`
		got := p.patchBareRefs(in)
		if !strings.Contains(got, `href="#" xlink:href="#"`) {
			t.Errorf("attributes not rewritten: %q", got)
		}
		if n := strings.Count(got, "onclick="); n != 1 {
			t.Errorf("onclick count = %d, want 1", n)
		}
	})

	t.Run("namespaced only", func(t *testing.T) {
		p := newPatcherForTest(t, map[string]Ref{"foo": {File: "foo.html"}})

		in := `<a xlink:href="\ref"><text>foo</text></a>`
		want := `<a xlink:href="foo.html"><text>foo</text></a>`
		if got := p.patchBareRefs(in); got != want {
			t.Errorf("patchBareRefs() = %q, want %q", got, want)
		}
	})
}

func TestPatchBareRefs_NoPlaceholdersRemain(t *testing.T) {
	p := newPatcherForTest(t, map[string]Ref{
		"known": {File: "known.html"},
	})

	in := `<svg>
<a href="\ref"><text>known</text></a>
<a xlink:href="\ref"><text>unknown</text></a>
<a href="\ref" xlink:href="\ref"><text>known</text></a>
</svg>`
	got := p.patchBareRefs(in)
	if HasBareRefs(got) {
		t.Errorf("placeholders remain after patching: %q", got)
	}
}

func TestPatchBareRefs_MultipleAnchors(t *testing.T) {
	p := newPatcherForTest(t, map[string]Ref{
		"alpha": {File: "alpha.html"},
		"beta":  {File: "beta.html", Anchor: "b"},
	})

	in := `<svg><rect width="10"/>` +
		`<a href="\ref"><text>alpha</text></a><line x1="0"/>` +
		`<a href="\ref"><text>missing</text></a>` +
		`<a xlink:href="\ref"><text>beta</text></a><circle r="4"/></svg>`
	got := p.patchBareRefs(in)

	if !strings.Contains(got, `<a href="alpha.html"><text>alpha</text></a>`) {
		t.Errorf("first anchor not patched: %q", got)
	}
	if !strings.Contains(got, `name:'missing'`) {
		t.Errorf("second anchor not patched as unresolved: %q", got)
	}
	if !strings.Contains(got, `<a xlink:href="beta.html#b"><text>beta</text></a>`) {
		t.Errorf("third anchor not patched: %q", got)
	}
	// non-anchor content preserved verbatim
	for _, keep := range []string{`<rect width="10"/>`, `<line x1="0"/>`, `<circle r="4"/>`} {
		if !strings.Contains(got, keep) {
			t.Errorf("non-anchor content lost: %q", keep)
		}
	}
}

func TestPatchBareRefs_MalformedSkipped(t *testing.T) {
	t.Run("no close tag", func(t *testing.T) {
		p := newPatcherForTest(t, map[string]Ref{"foo": {File: "foo.html"}})

		in := `<a href="\ref"><text>foo</text>`
		if got := p.patchBareRefs(in); got != in {
			t.Errorf("malformed anchor was modified: %q", got)
		}
	})

	t.Run("no opening tag", func(t *testing.T) {
		p := newPatcherForTest(t, nil)

		in := `href="\ref"<text>foo</text></a>`
		if got := p.patchBareRefs(in); got != in {
			t.Errorf("malformed anchor was modified: %q", got)
		}
	})

	t.Run("empty caption", func(t *testing.T) {
		p := newPatcherForTest(t, nil)

		in := `<a href="\ref"><text>  </text></a>`
		if got := p.patchBareRefs(in); got != in {
			t.Errorf("anchor without a caption was modified: %q", got)
		}
	})

	t.Run("malformed does not block later anchors", func(t *testing.T) {
		p := newPatcherForTest(t, map[string]Ref{"foo": {File: "foo.html"}})

		in := `<rect href="\ref"/>` + // no enclosing anchor at all
			`<a href="\ref"><text>foo</text></a>`
		got := p.patchBareRefs(in)
		if !strings.Contains(got, `<rect href="\ref"/>`) {
			t.Errorf("orphan placeholder was modified: %q", got)
		}
		if !strings.Contains(got, `<a href="foo.html"><text>foo</text></a>`) {
			t.Errorf("well-formed anchor after orphan not patched: %q", got)
		}
	})
}

// countingResolver tracks how often each name is resolved.
type countingResolver struct {
	refs  map[string]Ref
	calls map[string]int
}

func (c *countingResolver) Resolve(name, context, relPath string) Ref {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
	return c.refs[name]
}

func TestPatchBareRefs_KeepUnresolvedResolvesAnchorOnce(t *testing.T) {
	res := &countingResolver{}
	p := NewPatcher("test.svg", "", "", res, zaptest.NewLogger(t), KeepUnresolved())

	// both placeholder spellings in one opening tag - the anchor is kept,
	// and skipping it must not re-resolve the same name for the second
	// spelling
	in := `<a href="\ref" xlink:href="\ref"><text>unknown</text></a>` +
		`<a href="\ref"><text>also unknown</text></a>`
	if got := p.patchBareRefs(in); got != in {
		t.Errorf("kept anchors were modified: %q", got)
	}
	if n := res.calls["unknown"]; n != 1 {
		t.Errorf("dual-attribute anchor resolved %d times, want 1", n)
	}
	if n := res.calls["also unknown"]; n != 1 {
		t.Errorf("following anchor resolved %d times, want 1", n)
	}
}

func TestPatchBareRefs_KeepUnresolved(t *testing.T) {
	p := newPatcherForTest(t, map[string]Ref{"foo": {File: "foo.html"}}, KeepUnresolved())

	in := `<a href="\ref"><text>unknown</text></a><a href="\ref"><text>foo</text></a>`
	got := p.patchBareRefs(in)
	if !strings.Contains(got, `<a href="\ref"><text>unknown</text></a>`) {
		t.Errorf("unresolved anchor was rewritten in keep mode: %q", got)
	}
	if !strings.Contains(got, `<a href="foo.html"><text>foo</text></a>`) {
		t.Errorf("resolved anchor not rewritten: %q", got)
	}
}

func TestRun_FileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	t.Run("gate idempotence", func(t *testing.T) {
		path := filepath.Join(dir, "clean.svg")
		content := `<svg><a href="page.html"><text>ok</text></a></svg>`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		p := NewPatcher(path, "", "", fakeResolver{}, zaptest.NewLogger(t))
		if err := p.Run(); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("file without placeholders was modified: %q", got)
		}
	})

	t.Run("patched in place", func(t *testing.T) {
		path := filepath.Join(dir, "refs.svg")
		content := `<svg><a href="\ref"><text>foo</text></a></svg>`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		p := NewPatcher(path, "", "", fakeResolver{refs: map[string]Ref{
			"foo": {File: "foo.html"},
		}}, zaptest.NewLogger(t))
		if err := p.Run(); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		want := `<svg><a href="foo.html"><text>foo</text></a></svg>`
		if string(got) != want {
			t.Errorf("patched content = %q, want %q", got, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		p := NewPatcher(filepath.Join(dir, "absent.svg"), "", "", fakeResolver{}, zaptest.NewLogger(t))
		if err := p.Run(); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestRef_Resolved(t *testing.T) {
	tests := []struct {
		name string
		ref  Ref
		want bool
	}{
		{"empty", Ref{}, false},
		{"file", Ref{File: "a.html"}, true},
		{"anchor", Ref{Anchor: "x"}, true},
		{"both", Ref{File: "a.html", Anchor: "x"}, true},
		{"prefix alone does not count", Ref{Prefix: "../"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Resolved(); got != tt.want {
				t.Errorf("Resolved() = %v, want %v", got, tt.want)
			}
		})
	}
}
