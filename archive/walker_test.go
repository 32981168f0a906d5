package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// buildArchive creates a zip file shaped like a generated documentation set.
func buildArchive(t *testing.T, members map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "docs.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w := zip.NewWriter(f)
	for name, content := range members {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("unable to add member %q: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("unable to write member %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

var docMembers = map[string]string{
	"html/diagrams/classes.svg":  `<svg><a href="\ref"><text>api</text></a></svg>`,
	"html/diagrams/sequence.svg": `<svg><text>no refs here</text></svg>`,
	"html/diagrams/legacy.SVG":   `<svg/>`,
	"html/index.html":            "<html/>",
	"html/tagfile.xml":           "<tagfile/>",
	"extra/cover.svg":            `<svg/>`,
}

func collectNames(t *testing.T, archive, root, ext string) []string {
	t.Helper()
	var names []string
	err := Walk(archive, root, ext, func(arc string, f *zip.File) error {
		if arc != archive {
			t.Errorf("archive = %q, want %q", arc, archive)
		}
		names = append(names, f.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return names
}

func TestWalk_ExtensionFilter(t *testing.T) {
	archive := buildArchive(t, docMembers)

	t.Run("svg members under root", func(t *testing.T) {
		names := collectNames(t, archive, "html/diagrams/", ".svg")
		want := map[string]bool{
			"html/diagrams/classes.svg":  true,
			"html/diagrams/sequence.svg": true,
			"html/diagrams/legacy.SVG":   true, // extension match is case-insensitive
		}
		if len(names) != len(want) {
			t.Fatalf("visited %d members, want %d: %v", len(names), len(want), names)
		}
		for _, n := range names {
			if !want[n] {
				t.Errorf("unexpected member visited: %q", n)
			}
		}
	})

	t.Run("svg members across whole archive", func(t *testing.T) {
		if names := collectNames(t, archive, "", ".svg"); len(names) != 4 {
			t.Errorf("visited %d members, want 4: %v", len(names), names)
		}
	})

	t.Run("empty extension selects everything under root", func(t *testing.T) {
		if names := collectNames(t, archive, "html/", ""); len(names) != 5 {
			t.Errorf("visited %d members, want 5: %v", len(names), names)
		}
	})

	t.Run("no members under root", func(t *testing.T) {
		if names := collectNames(t, archive, "pdf/", ".svg"); len(names) != 0 {
			t.Errorf("visited %d members, want 0: %v", len(names), names)
		}
	})

	t.Run("root match is case-sensitive", func(t *testing.T) {
		if names := collectNames(t, archive, "HTML/", ".svg"); len(names) != 0 {
			t.Errorf("visited %d members, want 0: %v", len(names), names)
		}
	})
}

func TestWalk_MemberContent(t *testing.T) {
	archive := buildArchive(t, docMembers)

	err := Walk(archive, "html/diagrams/classes.svg", ".svg", func(_ string, f *zip.File) error {
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if string(data) != docMembers["html/diagrams/classes.svg"] {
			t.Errorf("member content = %q, want %q", data, docMembers["html/diagrams/classes.svg"])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
}

func TestWalk_DirectoryEntriesSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w := zip.NewWriter(f)
	hdr := &zip.FileHeader{Name: "html/diagrams/"}
	hdr.SetMode(os.ModeDir | 0755)
	if _, err := w.CreateHeader(hdr); err != nil {
		t.Fatal(err)
	}
	fw, err := w.Create("html/diagrams/overview.svg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	w.Close()
	f.Close()

	names := collectNames(t, path, "html/", "")
	if len(names) != 1 || names[0] != "html/diagrams/overview.svg" {
		t.Errorf("visited %v, want only the file member", names)
	}
}

func TestWalk_ErrorStopsIteration(t *testing.T) {
	archive := buildArchive(t, docMembers)

	stop := errors.New("enough")
	visited := 0
	err := Walk(archive, "", ".svg", func(string, *zip.File) error {
		visited++
		if visited == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if visited != 2 {
		t.Errorf("visited %d members after stop, want 2", visited)
	}
}

func TestWalk_UnsafeMemberAborts(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"../escape.svg": `<svg/>`,
		"html/ok.svg":   `<svg/>`,
	})

	err := Walk(archive, "", ".svg", func(string, *zip.File) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error for path traversal member")
	}
}

func TestWalk_BadArchive(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if err := Walk(filepath.Join(t.TempDir(), "absent.zip"), "", "", func(string, *zip.File) error { return nil }); err == nil {
			t.Error("expected error for missing archive")
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.zip")
		if err := os.WriteFile(path, []byte("not an archive"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := Walk(path, "", "", func(string, *zip.File) error { return nil }); err == nil {
			t.Error("expected error for invalid archive")
		}
	})
}
