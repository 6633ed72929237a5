package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CageChen/fileorganizer/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metas(specs ...string) []scan.FileMeta {
	out := make([]scan.FileMeta, len(specs))
	for i, name := range specs {
		out[i] = scan.FileMeta{Name: name, Path: "/r/" + name, FileType: scan.FileType(name)}
	}
	return out
}

func sampleNames(files []scan.FileMeta) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestSampleDiverse_OnePerTypeFirst(t *testing.T) {
	files := metas("a1.txt", "a2.txt", "a3.txt", "b1.go", "c1.md", "c2.md")
	assert.Equal(t, []string{"a1.txt", "b1.go", "c1.md"}, sampleNames(SampleDiverse(files, 3)))
	assert.Equal(t, []string{"a1.txt", "b1.go"}, sampleNames(SampleDiverse(files, 2)))
}

func TestSampleDiverse_RoundRobinByFrequency(t *testing.T) {
	files := metas("c1.md", "a1.txt", "a2.txt", "a3.txt", "a4.txt", "c2.md", "c3.md", "b1.go")
	got := sampleNames(SampleDiverse(files, 6))
	assert.Equal(t, []string{"c1.md", "a1.txt", "b1.go", "a2.txt", "c2.md", "a3.txt"}, got)
}

func TestSampleDiverse_Bounds(t *testing.T) {
	files := metas("a.txt", "b.txt")
	assert.Len(t, SampleDiverse(files, 10), 2)
	assert.Empty(t, SampleDiverse(files, 0))
	assert.NotNil(t, SampleDiverse(nil, 5))
}

func TestProjectFolders(t *testing.T) {
	root := filepath.FromSlash("/r")
	files := []scan.FileMeta{
		{Name: "go.mod", Path: filepath.FromSlash("/r/tools/cli/go.mod")},
		{Name: "main.go", Path: filepath.FromSlash("/r/tools/cli/main.go")},
		{Name: "HEAD", Path: filepath.FromSlash("/r/site/.git/HEAD")},
		{Name: "package.json", Path: filepath.FromSlash("/r/package.json")},
		{Name: "notes.txt", Path: filepath.FromSlash("/r/notes.txt")},
	}
	assert.Equal(t, []string{"site", "tools/cli"}, ProjectFolders(root, files))
}

func TestSnippet(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "a.txt")
	writeFile(t, text, "hello\n\tworld  again")
	assert.Equal(t, "hello world again", Snippet(text))

	long := filepath.Join(dir, "long.txt")
	writeFile(t, long, strings.Repeat("word ", 60))
	got := Snippet(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, snippetChars, len([]rune(got)))

	bin := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0x00, 0xff, 0xfe, 0x01}, 0o644))
	assert.Empty(t, Snippet(bin))

	// A multibyte rune split by the read limit is dropped, not rejected.
	split := filepath.Join(dir, "split.txt")
	writeFile(t, split, strings.Repeat("a", snippetBytes-1)+"é")
	assert.Equal(t, snippetChars, len([]rune(Snippet(split))))

	assert.Empty(t, Snippet(filepath.Join(dir, "missing")))
}

func TestBuildPrompt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plan.md"), "# Q3 roadmap")
	writeFile(t, filepath.Join(dir, "app", "go.mod"), "module app")
	for i := 0; i < 4; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("photo%d.jpg", i)), "jpg")
	}
	files := scan.ScanDirectory(dir)

	p, err := BuildPrompt(dir, files, 3)
	require.NoError(t, err)

	assert.Equal(t, 6, p.TotalFiles)
	assert.Equal(t, 3, p.Sampled)
	assert.Contains(t, p.Prompt, "Root directory has 6 files")
	assert.Contains(t, p.Prompt, "Most common file types: jpg(4)")
	assert.Contains(t, p.Prompt, "Keep these project folders intact: app")
	assert.Contains(t, p.Prompt, "Path: app/go.mod")
	assert.Contains(t, p.Prompt, "Content: # Q3 roadmap")
	assert.Contains(t, p.Prompt, "Modified: "+time.Now().Format("2006"))
	assert.NotContains(t, p.Prompt, "Previous Organization Context")
	assert.Equal(t, 3, strings.Count(p.Prompt, "- **"), "one entry per sampled file")
}

func TestBuildPrompt_UsesMemory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, MemoryFile), `{
		"timestamp": "2026-01-02T03:04:05",
		"folders_created": ["Work/Docs", "Archive"],
		"organization_patterns": {".txt": ["Work/Docs"]}
	}`)

	p, err := BuildPrompt(dir, scan.ScanDirectory(dir), 0)
	require.NoError(t, err)
	assert.Contains(t, p.Prompt, "Last organized: 2026-01-02T03:04:05")
	assert.Contains(t, p.Prompt, "Existing folder structure: Work/Docs, Archive")
	assert.Contains(t, p.Prompt, `".txt": [`)
}

func TestBuildPrompt_BadMemory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, MemoryFile), "{not json")
	_, err := BuildPrompt(dir, nil, 0)
	assert.Error(t, err)
}

func TestLoadMemory_Absent(t *testing.T) {
	m, err := LoadMemory(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, m)
}
