package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_TolerantOfNotYetExistingRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "owner-1", "app-1")

	s, err := New(root)
	if err != nil {
		t.Fatalf("New on not-yet-existing root: %v", err)
	}
	if err := s.Write("src/index.ts", []byte("hello")); err != nil {
		t.Fatalf("Write into a lazily created root: %v", err)
	}
	got, err := s.Read("src/index.ts")
	if err != nil || string(got) != "hello" {
		t.Fatalf("Read back: got=%q err=%v", got, err)
	}
}

func TestWriteReadExists(t *testing.T) {
	s := newStore(t)
	if err := s.Write("src/index.ts", []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ok, err := s.Exists("src/index.ts")
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	got, err := s.Read("src/index.ts")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestRead_NotFound(t *testing.T) {
	s := newStore(t)
	if _, err := s.Read("missing.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPathEscape_Forbidden(t *testing.T) {
	s := newStore(t)
	cases := []string{"../../etc/passwd", "/../etc/passwd", "../outside.txt"}
	for _, p := range cases {
		if _, err := s.Read(p); err != ErrForbiddenPath {
			t.Fatalf("path %q: expected ErrForbiddenPath, got %v", p, err)
		}
		if err := s.Write(p, []byte("x")); err != ErrForbiddenPath {
			t.Fatalf("path %q: expected ErrForbiddenPath on write, got %v", p, err)
		}
	}
	// no I/O should have happened outside the root
	if _, err := os.Stat(filepath.Join(s.Root(), "..", "outside.txt")); err == nil {
		t.Fatalf("escape write should not have touched the filesystem")
	}
}

func TestSymlinkEscape_Forbidden(t *testing.T) {
	s := newStore(t)
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("top secret"), 0o644); err != nil {
		t.Fatalf("seed outside file: %v", err)
	}

	link := filepath.Join(s.Root(), "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	if _, err := s.Read("escape/secret.txt"); err != ErrForbiddenPath {
		t.Fatalf("expected ErrForbiddenPath reading through a symlink, got %v", err)
	}
	if err := s.Write("escape/secret.txt", []byte("pwned")); err != ErrForbiddenPath {
		t.Fatalf("expected ErrForbiddenPath writing through a symlink, got %v", err)
	}
	if err := s.Delete("escape/secret.txt"); err != ErrForbiddenPath {
		t.Fatalf("expected ErrForbiddenPath deleting through a symlink, got %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outside, "secret.txt"))
	if err != nil || string(got) != "top secret" {
		t.Fatalf("escape should not have touched the outside file: got=%q err=%v", got, err)
	}
}

func TestWrite_NewFileUnderMissingDirs_NotMistakenForEscape(t *testing.T) {
	s := newStore(t)
	if err := s.Write("a/b/c/new.txt", []byte("ok")); err != nil {
		t.Fatalf("Write into not-yet-existing directories: %v", err)
	}
	got, err := s.Read("a/b/c/new.txt")
	if err != nil || string(got) != "ok" {
		t.Fatalf("Read back: got=%q err=%v", got, err)
	}
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	_ = s.Write("a.txt", []byte("x"))
	if err := s.Delete("a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Exists("a.txt"); ok {
		t.Fatalf("expected a.txt to be gone")
	}
}

func TestEnsureDir_And_Stat(t *testing.T) {
	s := newStore(t)
	if err := s.EnsureDir("nested/dir"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	entry, err := s.Stat("nested/dir")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !entry.IsDir {
		t.Fatalf("expected directory entry")
	}
}

func TestList(t *testing.T) {
	s := newStore(t)
	_ = s.Write("a.txt", []byte("a"))
	_ = s.Write("sub/b.txt", []byte("b"))
	entries, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 top-level entries, got %d: %+v", len(entries), entries)
	}
}

func TestListRecursive_PrunesDefaultsAndMaxDepth(t *testing.T) {
	s := newStore(t)
	_ = s.Write("index.ts", []byte("x"))
	_ = s.Write("node_modules/pkg/index.js", []byte("x"))
	_ = s.Write(".git/HEAD", []byte("x"))
	_ = s.Write("src/deep/deeper/file.ts", []byte("x"))

	entries, err := s.ListRecursive("", -1)
	if err != nil {
		t.Fatalf("ListRecursive: %v", err)
	}
	for _, e := range entries {
		if e.Path == "node_modules" || e.Path == ".git" {
			t.Fatalf("expected %s to be pruned, entries: %+v", e.Path, entries)
		}
	}

	shallow, err := s.ListRecursive("", 1)
	if err != nil {
		t.Fatalf("ListRecursive depth=1: %v", err)
	}
	for _, e := range shallow {
		if e.Path == "src/deep/deeper/file.ts" {
			t.Fatalf("expected max_depth=1 to exclude nested file, got %+v", shallow)
		}
	}
}

func TestListRecursive_HonorsGitignore(t *testing.T) {
	s := newStore(t)
	_ = s.Write(".gitignore", []byte("*.log\nbuild/\n"))
	_ = s.Write("app.log", []byte("x"))
	_ = s.Write("build/out.txt", []byte("x"))
	_ = s.Write("keep.ts", []byte("x"))

	entries, err := s.ListRecursive("", -1)
	if err != nil {
		t.Fatalf("ListRecursive: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Path] = true
	}
	if seen["app.log"] || seen["build"] {
		t.Fatalf("expected .gitignore patterns to be pruned, got %+v", entries)
	}
	if !seen["keep.ts"] {
		t.Fatalf("expected keep.ts to survive, got %+v", entries)
	}
}

func TestCopyAndRename(t *testing.T) {
	s := newStore(t)
	_ = s.Write("a.txt", []byte("hello"))
	if err := s.Copy("a.txt", "nested/b.txt"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := s.Read("nested/b.txt")
	if err != nil || string(got) != "hello" {
		t.Fatalf("Copy result: %q err=%v", got, err)
	}
	if err := s.Rename("nested/b.txt", "nested/c.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if ok, _ := s.Exists("nested/b.txt"); ok {
		t.Fatalf("expected source to be gone after rename")
	}
	if ok, _ := s.Exists("nested/c.txt"); !ok {
		t.Fatalf("expected destination to exist after rename")
	}
}
