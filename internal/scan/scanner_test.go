package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	mfs "github.com/CageChen/fileorganizer/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func names(files []FileMeta) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestScan_EmptyDirectory(t *testing.T) {
	files := ScanDirectory(t.TempDir())
	require.NotNil(t, files)
	assert.Empty(t, files)
}

func TestScan_FlatDirectory(t *testing.T) {
	dir := t.TempDir()
	sizes := map[string]int{"a.txt": 1, "b.md": 22, "c.go": 333}
	for name, n := range sizes {
		writeFile(t, filepath.Join(dir, name), strings.Repeat("x", n))
	}

	files := ScanDirectory(dir)
	require.Len(t, files, len(sizes))

	seen := make(map[string]int)
	for _, f := range files {
		seen[f.Name]++
		assert.EqualValues(t, sizes[f.Name], f.Size, f.Name)
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
		assert.True(t, f.Modified.Known())
	}
	for name := range sizes {
		assert.Equal(t, 1, seen[name], name)
	}
}

func TestScan_NestedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "b")

	files := ScanDirectory(dir)
	require.Len(t, files, 2)

	paths := []string{files[0].Path, files[1].Path}
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.txt"),
	}, paths)
}

func TestScan_DepthFirstInlineOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "")
	writeFile(t, filepath.Join(dir, "b", "c.txt"), "")
	writeFile(t, filepath.Join(dir, "b", "d", "e.txt"), "")
	writeFile(t, filepath.Join(dir, "b", "f.txt"), "")
	writeFile(t, filepath.Join(dir, "g.txt"), "")

	// os.ReadDir enumerates by name, so the order here is fixed.
	assert.Equal(t, []string{"a.txt", "c.txt", "e.txt", "f.txt", "g.txt"}, names(ScanDirectory(dir)))
}

func TestScan_FileType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"README", Unknown},
		{"notes.txt", "txt"},
		{"REPORT.PDF", "pdf"},
		{"Photo.JpEg", "jpeg"},
		{"archive.tar.gz", "gz"},
		{".bashrc", Unknown},
		{"trailing.", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileType(tt.name))
		})
	}
}

func TestScan_FileTypeOnDisk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README"), "")
	writeFile(t, filepath.Join(dir, "notes.TXT"), "")

	got := make(map[string]string)
	for _, f := range ScanDirectory(dir) {
		got[f.Name] = f.FileType
	}
	assert.Equal(t, map[string]string{"README": Unknown, "notes.TXT": "txt"}, got)
}

func TestScan_NonexistentRoot(t *testing.T) {
	var skipped []SkippedPath
	root := filepath.Join(t.TempDir(), "does-not-exist")

	files := New(WithErrorHandler(Collect(&skipped))).Scan(root)
	require.NotNil(t, files)
	assert.Empty(t, files)
	require.Len(t, skipped, 1)
	assert.Equal(t, root, skipped[0].Path)
	assert.Equal(t, OpReadDir, skipped[0].Op)
}

func TestScan_RootIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	writeFile(t, file, "x")

	assert.Empty(t, ScanDirectory(file))
}

func TestScan_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x", "1.txt"), "1")
	writeFile(t, filepath.Join(dir, "y", "2.txt"), "22")
	writeFile(t, filepath.Join(dir, "3.txt"), "333")

	first := ScanDirectory(dir)
	second := ScanDirectory(dir)
	assert.ElementsMatch(t, first, second)
}

func TestScan_DeepNesting(t *testing.T) {
	dir := t.TempDir()
	const depth = 20
	p := dir
	for i := 0; i < depth; i++ {
		p = filepath.Join(p, fmt.Sprintf("level%d", i))
		writeFile(t, filepath.Join(p, fmt.Sprintf("file%d.txt", i)), "x")
	}

	files := ScanDirectory(dir)
	require.Len(t, files, depth)
	assert.Equal(t, "file19.txt", files[depth-1].Name)
}

// faultyFS wraps a LocalFS and fails chosen paths.
type faultyFS struct {
	*mfs.LocalFS
	failReadDir map[string]bool
	failStat    map[string]bool
}

func (f *faultyFS) ReadDir(path string) ([]mfs.DirEntry, error) {
	if f.failReadDir[filepath.ToSlash(path)] {
		return nil, os.ErrPermission
	}
	return f.LocalFS.ReadDir(path)
}

func (f *faultyFS) Lstat(path string) (mfs.FileInfo, error) {
	if f.failStat[filepath.ToSlash(path)] {
		return mfs.FileInfo{}, errors.New("entry vanished")
	}
	return f.LocalFS.Lstat(path)
}

func TestScan_SkipsUnreadableDirectoryAndEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.txt"), "")
	writeFile(t, filepath.Join(dir, "gone.txt"), "")
	writeFile(t, filepath.Join(dir, "locked", "hidden.txt"), "")
	writeFile(t, filepath.Join(dir, "open", "visible.txt"), "")

	open := func(root string) mfs.FileSystem {
		return &faultyFS{
			LocalFS:     mfs.NewLocalFS(root),
			failReadDir: map[string]bool{"locked": true},
			failStat:    map[string]bool{"gone.txt": true},
		}
	}

	t.Run("silent", func(t *testing.T) {
		files := New(WithFileSystem(open)).Scan(dir)
		assert.ElementsMatch(t, []string{"ok.txt", "visible.txt"}, names(files))
	})

	t.Run("collect", func(t *testing.T) {
		var skipped []SkippedPath
		files := New(WithFileSystem(open), WithErrorHandler(Collect(&skipped))).Scan(dir)
		assert.ElementsMatch(t, []string{"ok.txt", "visible.txt"}, names(files))
		assert.ElementsMatch(t, []SkippedPath{
			{Path: filepath.Join(dir, "gone.txt"), Op: OpStat, Error: "entry vanished"},
			{Path: filepath.Join(dir, "locked"), Op: OpReadDir, Error: os.ErrPermission.Error()},
		}, skipped)
	})
}

func TestScan_Chain(t *testing.T) {
	var a, b []SkippedPath
	root := filepath.Join(t.TempDir(), "missing")
	New(WithErrorHandler(Chain(Collect(&a), Collect(&b)))).Scan(root)
	assert.Len(t, a, 1)
	assert.Equal(t, a, b)
}

func TestScanAsync(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.txt"), "1")

	select {
	case res, ok := <-New().ScanAsync(dir):
		require.True(t, ok)
		assert.Equal(t, dir, res.Root)
		assert.Equal(t, []string{"one.txt"}, names(res.Files))
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not complete")
	}
}

func skipWithoutSymlinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
}

func TestScan_FollowsSymlinkedDirectory(t *testing.T) {
	skipWithoutSymlinks(t)
	dir := t.TempDir()
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "inner.txt"), "inside")
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	require.NoError(t, os.Symlink(other, filepath.Join(dir, "link")))

	files := ScanDirectory(dir)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, filepath.Join(dir, "link", "inner.txt"), files[1].Path)
	assert.Equal(t, "txt", files[1].FileType)
	assert.EqualValues(t, 6, files[1].Size)
}

func TestScan_SymlinkToFileUsesLinkMetadata(t *testing.T) {
	skipWithoutSymlinks(t)
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "target.txt")
	writeFile(t, target, "0123456789")
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "alias.md")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "broken")))

	files := ScanDirectory(dir)
	require.Len(t, files, 2)
	assert.Equal(t, "alias.md", files[0].Name)
	assert.Equal(t, "md", files[0].FileType)
	assert.EqualValues(t, len(target), files[0].Size)
	assert.Equal(t, "broken", files[1].Name)
}

func TestScan_SymlinkCycleTerminates(t *testing.T) {
	skipWithoutSymlinks(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.txt"), "")
	writeFile(t, filepath.Join(dir, "sub", "low.txt"), "")
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "sub", "back")))

	var skipped []SkippedPath
	files := New(WithErrorHandler(Collect(&skipped))).Scan(dir)

	assert.Equal(t, []string{"low.txt", "top.txt"}, names(files))
	require.Len(t, skipped, 1)
	assert.Equal(t, filepath.Join(dir, "sub", "back"), skipped[0].Path)
	assert.Equal(t, OpFollow, skipped[0].Op)
	assert.Equal(t, ErrSymlinkCycle.Error(), skipped[0].Error)
}

func TestScan_MutualSymlinksTerminate(t *testing.T) {
	skipWithoutSymlinks(t)
	base := t.TempDir()
	a := filepath.Join(base, "a")
	b := filepath.Join(base, "b")
	writeFile(t, filepath.Join(a, "in_a.txt"), "")
	writeFile(t, filepath.Join(b, "in_b.txt"), "")
	require.NoError(t, os.Symlink(b, filepath.Join(a, "to_b")))
	require.NoError(t, os.Symlink(a, filepath.Join(b, "to_a")))

	files := ScanDirectory(a)
	assert.Equal(t, []string{"in_a.txt", "in_b.txt"}, names(files))
	assert.Equal(t, filepath.Join(a, "to_b", "in_b.txt"), files[1].Path)
}
