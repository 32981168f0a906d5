package patch

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

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

func TestExtractMember(t *testing.T) {
	content := `<svg><a href="\ref"><text>api</text></a></svg>`
	archive := buildArchive(t, map[string]string{
		"html/diagrams/overview.svg": content,
	})

	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	member := r.File[0]

	t.Run("full copy on disk", func(t *testing.T) {
		dst := t.TempDir()
		out, err := extractMember(member, member.Name, dst)
		if err != nil {
			t.Fatalf("extractMember() error = %v", err)
		}

		want := filepath.Join(dst, "html", "diagrams", "overview.svg")
		if out != want {
			t.Errorf("extracted path = %q, want %q", out, want)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != content {
			t.Errorf("extracted content = %q, want %q", data, content)
		}
	})

	t.Run("decoded name overrides member name", func(t *testing.T) {
		dst := t.TempDir()
		out, err := extractMember(member, "renamed/diagram.svg", dst)
		if err != nil {
			t.Fatalf("extractMember() error = %v", err)
		}
		if want := filepath.Join(dst, "renamed", "diagram.svg"); out != want {
			t.Errorf("extracted path = %q, want %q", out, want)
		}
	})

	t.Run("unwritable destination", func(t *testing.T) {
		// a regular file where the destination directory should go
		blocker := filepath.Join(t.TempDir(), "blocked")
		if err := os.WriteFile(blocker, []byte("in the way"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := extractMember(member, member.Name, blocker); err == nil {
			t.Error("expected error when destination cannot be created")
		}
	})
}
