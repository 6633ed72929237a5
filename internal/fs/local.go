package fs

import (
	"os"
	"path/filepath"
)

// LocalFS implements FileSystem using the local filesystem.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at the given directory.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

// Root returns the directory the LocalFS was created with.
func (l *LocalFS) Root() string {
	return l.root
}

// Abs joins path onto the root the same way every other LocalFS method does.
func (l *LocalFS) Abs(path string) string {
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, path)
}

// Stat returns metadata for the file or directory at the given path relative to the root,
// following symlinks.
func (l *LocalFS) Stat(path string) (FileInfo, error) {
	p := l.Abs(path)
	info, err := os.Stat(p)
	if err != nil {
		return FileInfo{}, err
	}
	return toFileInfo(p, info, true), nil
}

// Lstat is like Stat but describes a symlink itself rather than its target.
func (l *LocalFS) Lstat(path string) (FileInfo, error) {
	p := l.Abs(path)
	info, err := os.Lstat(p)
	if err != nil {
		return FileInfo{}, err
	}
	return toFileInfo(p, info, false), nil
}

// ReadDir lists the immediate children of the directory at the given path relative to the root.
// Entries come back in the order os.ReadDir yields them. A symlink reports IsDir false whatever it
// points at; Stat it to find out.
func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(l.Abs(path))
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(entries))
	for i, e := range entries {
		result[i] = DirEntry{
			Name:      e.Name(),
			IsDir:     e.IsDir(),
			IsSymlink: e.Type()&os.ModeSymlink != 0,
		}
	}
	return result, nil
}

// RealPath returns the absolute path of path relative to the root with all symlinks resolved.
func (l *LocalFS) RealPath(path string) (string, error) {
	abs, err := filepath.Abs(l.Abs(path))
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func toFileInfo(path string, info os.FileInfo, follow bool) FileInfo {
	fi := FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	fi.Created, fi.HasCreated = birthTime(path, info, follow)
	return fi
}
