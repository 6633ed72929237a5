// Package scan walks a directory tree and collects per-file metadata.
package scan

import (
	"path/filepath"

	mfs "github.com/CageChen/fileorganizer/internal/fs"
)

// FileSystemFunc opens the filesystem a scan of root reads through.
type FileSystemFunc func(root string) mfs.FileSystem

// Scanner performs best-effort depth-first enumeration of a directory tree.
// A Scanner holds no per-scan state; whether it may run concurrent scans
// depends only on its ErrorHandler.
type Scanner struct {
	openFS  FileSystemFunc
	onError ErrorHandler
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithErrorHandler replaces the default silent-skip policy.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Scanner) {
		if h != nil {
			s.onError = h
		}
	}
}

// WithFileSystem replaces the local filesystem.
func WithFileSystem(open FileSystemFunc) Option {
	return func(s *Scanner) {
		if open != nil {
			s.openFS = open
		}
	}
}

// New creates a Scanner reading the local filesystem and skipping failures silently.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		openFS: func(root string) mfs.FileSystem {
			return mfs.NewLocalFS(root)
		},
		onError: SkipSilently,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanDirectory scans root with the default Scanner.
func ScanDirectory(root string) []FileMeta {
	return New().Scan(root)
}

type workItem struct {
	rel    string
	dir    bool
	link   bool
	parent *dirChain
}

// dirChain is the list of resolved directories enclosing a work item.
type dirChain struct {
	real   string
	parent *dirChain
}

func (c *dirChain) contains(real string) bool {
	for ; c != nil; c = c.parent {
		if c.real != "" && c.real == real {
			return true
		}
	}
	return false
}

// Scan returns metadata for every non-directory entry below root, in
// depth-first order with each directory's entries kept in enumeration order.
// Subdirectories are expanded in place. A symlink to a directory is walked
// unless it resolves to a directory enclosing it; any other symlink is recorded
// with the link's own metadata. Failures go to the ErrorHandler; a missing or
// unreadable root yields an empty slice. The result is never nil.
func (s *Scanner) Scan(root string) []FileMeta {
	fsys := s.openFS(root)
	files := make([]FileMeta, 0)

	// Entries are pushed in reverse so they pop in enumeration order.
	stack := []workItem{{rel: "", dir: true}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		full := joinRoot(root, item.rel)

		if item.link {
			if target, err := fsys.Stat(item.rel); err == nil && target.IsDir {
				real, err := fsys.RealPath(item.rel)
				if err != nil {
					s.onError(full, OpFollow, err)
					continue
				}
				if item.parent.contains(real) {
					s.onError(full, OpFollow, ErrSymlinkCycle)
					continue
				}
				stack = s.expand(fsys, stack, item, full, real)
				continue
			}
		}

		if item.dir {
			var real string
			if item.parent == nil {
				real, _ = fsys.RealPath(item.rel)
			} else if item.parent.real != "" {
				real = filepath.Join(item.parent.real, filepath.Base(item.rel))
			}
			stack = s.expand(fsys, stack, item, full, real)
			continue
		}

		info, err := fsys.Lstat(item.rel)
		if err != nil {
			s.onError(full, OpStat, err)
			continue
		}
		files = append(files, newFileMeta(full, info))
	}

	return files
}

// expand pushes the entries of the directory item onto stack.
func (s *Scanner) expand(fsys mfs.FileSystem, stack []workItem, item workItem, full, real string) []workItem {
	entries, err := fsys.ReadDir(item.rel)
	if err != nil {
		s.onError(full, OpReadDir, err)
		return stack
	}
	node := &dirChain{real: real, parent: item.parent}
	for i := len(entries) - 1; i >= 0; i-- {
		stack = append(stack, workItem{
			rel:    filepath.Join(item.rel, entries[i].Name),
			dir:    entries[i].IsDir,
			link:   entries[i].IsSymlink,
			parent: node,
		})
	}
	return stack
}

func joinRoot(root, rel string) string {
	if rel == "" {
		return root
	}
	return filepath.Join(root, rel)
}

// Result is a completed scan delivered by ScanAsync.
type Result struct {
	Root  string
	Files []FileMeta
}

// ScanAsync runs Scan on its own goroutine and delivers the result once on the
// returned channel, which is then closed. The channel is buffered, so a caller
// that stops waiting does not block the walk; the walk itself always runs to
// completion.
func (s *Scanner) ScanAsync(root string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- Result{Root: root, Files: s.Scan(root)}
	}()
	return ch
}
