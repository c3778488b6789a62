// Package workspace implements the Workspace Store: a path-safety-hardened
// set of file tree operations rooted at a per-app directory under the
// configured storage path. Every operation resolves its path argument
// against the workspace root, normalizes it, and rejects any resolution
// that escapes that root.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Typed errors distinguish "not found" from "access denied" and "invalid
// path" at the call site, the way the repo layer distinguishes ErrNotFound
// from other failures.
var (
	ErrForbiddenPath = errors.New("workspace: forbidden path, escapes workspace root")
	ErrNotFound      = errors.New("workspace: path not found")
	ErrAccessDenied  = errors.New("workspace: access denied")
)

// defaultPrune is the minimum set of directory names list_recursive prunes
// even when a workspace carries no .gitignore of its own.
var defaultPrune = []string{"node_modules", ".git", "dist", ".next"}

// Entry describes one file or directory returned by List/ListRecursive.
type Entry struct {
	Path    string // workspace-relative, slash-separated
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Store operates on a single workspace's file tree.
type Store struct {
	root     string
	realRoot string // root with symlinks resolved, used for containment checks
}

// New returns a Store rooted at root. root need not exist yet (Write creates
// it, and any missing parent directories, on first use); whatever prefix of
// it does already exist is resolved through symlinks so later containment
// checks compare against the real root, not a possibly-symlinked alias of it.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	realRoot, err := nearestRealPath(abs)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs, realRoot: realRoot}, nil
}

// Root returns the absolute workspace root directory.
func (s *Store) Root() string { return s.root }

// resolve normalizes a workspace-relative path and verifies it does not
// escape the workspace root, lexically or via a symlink planted somewhere
// along the path. No I/O beyond the symlink check is performed if
// resolution fails.
func (s *Store) resolve(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", ErrForbiddenPath
	}
	cleaned := filepath.Clean(relPath)
	if cleaned == "." {
		cleaned = ""
	}
	abs := filepath.Join(s.root, cleaned)
	rootWithSep := s.root + string(filepath.Separator)
	if abs != s.root && !strings.HasPrefix(abs, rootWithSep) {
		return "", ErrForbiddenPath
	}
	if err := s.checkRealPath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// checkRealPath resolves symlinks along abs's longest existing ancestor and
// verifies the resolved path stays within the workspace's resolved root.
// The workspace directory tree is shared with the spawned dev server, which
// could plant a symlink inside the root pointing outside of it; a purely
// lexical check would follow that symlink on the subsequent os.ReadFile /
// os.WriteFile and escape the workspace. abs itself need not exist yet
// (Write may be creating a new file), so only the portion of the path that
// already exists is resolved.
func (s *Store) checkRealPath(abs string) error {
	real, err := nearestRealPath(abs)
	if err != nil {
		return mapOSErr(err)
	}
	realRootWithSep := s.realRoot + string(filepath.Separator)
	if real != s.realRoot && !strings.HasPrefix(real, realRootWithSep) {
		return ErrForbiddenPath
	}
	return nil
}

// nearestRealPath resolves symlinks along p's longest existing ancestor
// directory, then rejoins the remaining not-yet-existing suffix unresolved.
func nearestRealPath(p string) (string, error) {
	suffix := ""
	cur := p
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if suffix == "" {
				return real, nil
			}
			return filepath.Join(real, suffix), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(cur), suffix)
		cur = parent
	}
}

func mapOSErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrAccessDenied
	default:
		return err
	}
}

// Read returns the file contents at path.
func (s *Store) Read(path string) ([]byte, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, mapOSErr(err)
	}
	return data, nil
}

// Write writes content to path, creating missing parent directories.
func (s *Store) Write(path string, content []byte) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return mapOSErr(err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return mapOSErr(err)
	}
	return nil
}

// Delete removes the file or (empty-or-not) directory at path.
func (s *Store) Delete(path string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		return mapOSErr(err)
	}
	return nil
}

// Exists reports whether path exists within the workspace.
func (s *Store) Exists(path string) (bool, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, mapOSErr(err)
	}
	return true, nil
}

// Stat returns metadata about the entry at path.
func (s *Store) Stat(path string) (Entry, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Entry{}, mapOSErr(err)
	}
	return Entry{Path: path, IsDir: info.IsDir(), Size: info.Size(), ModTime: info.ModTime()}, nil
}

// EnsureDir creates path (and parents) as a directory if it does not exist.
func (s *Store) EnsureDir(path string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return mapOSErr(err)
	}
	return nil
}

// List returns the immediate children of dir.
func (s *Store) List(dir string) ([]Entry, error) {
	abs, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(abs)
	if err != nil {
		return nil, mapOSErr(err)
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Path: filepath.ToSlash(filepath.Join(dir, de.Name())), IsDir: de.IsDir(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

// ListRecursive walks dir up to maxDepth (0 means dir's immediate children
// only; negative means unbounded), pruning directories matched by the
// workspace's .gitignore plus the built-in default prune set.
func (s *Store) ListRecursive(dir string, maxDepth int) ([]Entry, error) {
	abs, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	ignore := s.loadIgnore()
	var out []Entry
	var walk func(cur string, relDir string, depth int) error
	walk = func(cur, relDir string, depth int) error {
		des, err := os.ReadDir(cur)
		if err != nil {
			return mapOSErr(err)
		}
		for _, de := range des {
			name := de.Name()
			rel := filepath.ToSlash(filepath.Join(relDir, name))
			matchPath := rel
			if de.IsDir() {
				matchPath = rel + "/"
			}
			if isDefaultPruned(name) || ignore.MatchesPath(matchPath) {
				continue
			}
			info, err := de.Info()
			if err != nil {
				continue
			}
			out = append(out, Entry{Path: rel, IsDir: de.IsDir(), Size: info.Size(), ModTime: info.ModTime()})
			if de.IsDir() && (maxDepth < 0 || depth < maxDepth) {
				if err := walk(filepath.Join(cur, name), rel, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(abs, dir, 0); err != nil {
		return nil, err
	}
	return out, nil
}

func isDefaultPruned(name string) bool {
	for _, p := range defaultPrune {
		if name == p {
			return true
		}
	}
	return false
}

// loadIgnore compiles the workspace's .gitignore (if any) into matcher
// rules; a workspace without one gets an always-miss matcher.
func (s *Store) loadIgnore() *gitignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(s.root, ".gitignore"))
	if err != nil {
		return gitignore.CompileIgnoreLines()
	}
	lines := splitLines(string(data))
	return gitignore.CompileIgnoreLines(lines...)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, trimCR(s[start:i]))
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, trimCR(s[start:]))
	}
	return out
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}

// Copy duplicates the file at src to dst, creating dst's parent directories.
func (s *Store) Copy(src, dst string) error {
	data, err := s.Read(src)
	if err != nil {
		return err
	}
	return s.Write(dst, data)
}

// Rename moves the entry at src to dst, creating dst's parent directories.
func (s *Store) Rename(src, dst string) error {
	absSrc, err := s.resolve(src)
	if err != nil {
		return err
	}
	absDst, err := s.resolve(dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absDst), 0o755); err != nil {
		return mapOSErr(err)
	}
	if err := os.Rename(absSrc, absDst); err != nil {
		return mapOSErr(err)
	}
	return nil
}
