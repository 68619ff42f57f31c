package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempSite(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempSite(t)
	content := []byte("---\ntitle: Hello\n---\nWorld\n")
	if err := s.Write("page.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("page.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempSite(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingWrapsNotExist(t *testing.T) {
	s := tempSite(t)
	_, err := s.Read("missing.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestList(t *testing.T) {
	s := tempSite(t)
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("sub/a.md", []byte("a"))
	_ = s.Write("guide.markdown", []byte("g"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write("_site/copy.md", []byte("generated"))
	_ = s.Write("_includes/head.md", []byte("include"))
	_ = s.Write(".git/notes.md", []byte("hidden"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	want := []string{"b.md", "guide.markdown", "sub/a.md"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
	if items[0].Checksum == "" {
		t.Error("expected checksum")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempSite(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempSite(t)
	_ = s.Write("atomic.html", []byte("original"))

	updated := []byte("updated content")
	if err := s.Write("atomic.html", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.html")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".recently-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "recently-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestIsIgnoredDir(t *testing.T) {
	for _, name := range []string{"_site", ".git", "_layouts", "node_modules"} {
		if !IsIgnoredDir(name) {
			t.Errorf("IsIgnoredDir(%q) = false", name)
		}
	}
	if IsIgnoredDir("docs") {
		t.Error("docs should be scanned")
	}
}

func TestIsContentFile(t *testing.T) {
	cases := map[string]bool{
		"guide.md":            true,
		"docs/Guide.MARKDOWN": true,
		".draft.md":           false,
		"/site/docs/.wip.md":  false,
		"notes.txt":           false,
		"docs/.hidden/x.md":   true,
	}
	for name, want := range cases {
		if got := IsContentFile(name); got != want {
			t.Errorf("IsContentFile(%q) = %v, want %v", name, got, want)
		}
	}
}
