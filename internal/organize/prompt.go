package organize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/CageChen/fileorganizer/internal/report"
	"github.com/CageChen/fileorganizer/internal/scan"
)

const (
	// DefaultMaxFiles bounds how many files a prompt lists.
	DefaultMaxFiles = 50

	// MemoryFile is the file a previous organization run leaves in the root.
	MemoryFile = ".file_organizer_memory.json"

	snippetBytes = 150
	snippetChars = 100
)

// projectMarkers name files whose presence marks a folder as a project to keep intact.
var projectMarkers = map[string]bool{
	"package.json": true, "requirements.txt": true, "Pipfile": true, "setup.py": true,
	"Cargo.toml": true, "go.mod": true, "pom.xml": true, "build.gradle": true,
	"CMakeLists.txt": true, "Makefile": true, "Dockerfile": true,
}

// Memory is what a previous organization run recorded about the root.
type Memory struct {
	Timestamp            string              `json:"timestamp"`
	FoldersCreated       []string            `json:"folders_created"`
	OrganizationPatterns map[string][]string `json:"organization_patterns"`
}

// Prompt is the result of BuildPrompt.
type Prompt struct {
	Prompt     string `json:"prompt"`
	TotalFiles int    `json:"total_files"`
	Sampled    int    `json:"sampled"`
}

// LoadMemory reads the memory file under root. It returns nil, nil when there is none.
func LoadMemory(root string) (*Memory, error) {
	data, err := os.ReadFile(filepath.Join(root, MemoryFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read organization memory: %w", err)
	}
	var m Memory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode organization memory: %w", err)
	}
	return &m, nil
}

// ProjectFolders returns the folders below root, relative and slash-separated,
// that hold a build file or a .git directory. The root itself is never listed.
func ProjectFolders(root string, files []scan.FileMeta) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		dir := ""
		for i, p := range parts[:len(parts)-1] {
			if p == ".git" {
				dir = strings.Join(parts[:i], "/")
				break
			}
		}
		if dir == "" && projectMarkers[f.Name] {
			dir = strings.Join(parts[:len(parts)-1], "/")
		}
		if dir != "" {
			seen[dir] = true
		}
	}

	folders := make([]string, 0, len(seen))
	for d := range seen {
		folders = append(folders, d)
	}
	sort.Strings(folders)
	return folders
}

// BuildPrompt lays out the files of one scan of root as a request for a
// reorganization plan. At most maxFiles files are listed, chosen by SampleDiverse;
// maxFiles <= 0 means DefaultMaxFiles.
func BuildPrompt(root string, files []scan.FileMeta, maxFiles int) (*Prompt, error) {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	memory, err := LoadMemory(root)
	if err != nil {
		return nil, err
	}

	data := promptData{
		Memory:     memory,
		TotalFiles: len(files),
		TopTypes:   report.Summarize(root, files).TopTypes(5),
	}
	if memory != nil {
		patterns, err := json.MarshalIndent(memory.OrganizationPatterns, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode organization patterns: %w", err)
		}
		data.Patterns = string(patterns)
	}
	data.Preserve = ProjectFolders(root, files)
	if len(data.Preserve) > 5 {
		data.Preserve = data.Preserve[:5]
	}

	sampled := SampleDiverse(files, maxFiles)
	for _, f := range sampled {
		data.Files = append(data.Files, newPromptFile(root, f))
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	return &Prompt{Prompt: b.String(), TotalFiles: len(files), Sampled: len(sampled)}, nil
}

type promptData struct {
	Memory     *Memory
	Patterns   string
	TotalFiles int
	TopTypes   []string
	Preserve   []string
	Files      []promptFile
}

type promptFile struct {
	Name     string
	Path     string
	Type     string
	Size     string
	Modified string
	Snippet  string
}

func newPromptFile(root string, f scan.FileMeta) promptFile {
	rel, err := filepath.Rel(root, f.Path)
	if err != nil {
		rel = f.Path
	}
	modified := scan.Unknown
	if t, ok := f.Modified.Time(); ok {
		modified = t.Format("2006-01-02")
	}
	return promptFile{
		Name:     f.Name,
		Path:     filepath.ToSlash(rel),
		Type:     f.FileType,
		Size:     report.HumanBytes(f.Size),
		Modified: modified,
		Snippet:  Snippet(f.Path),
	}
}

// Snippet returns the start of a text file on one line, or "" when the file
// cannot be read or does not look like UTF-8 text.
func Snippet(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	buf, err := io.ReadAll(io.LimitReader(file, snippetBytes))
	if err != nil || len(buf) == 0 {
		return ""
	}
	// Drop a rune cut in half by the read limit.
	for i := 0; i < utf8.UTFMax && len(buf) > 0 && !utf8.Valid(buf); i++ {
		buf = buf[:len(buf)-1]
	}
	if !utf8.Valid(buf) || strings.ContainsRune(string(buf), 0) {
		return ""
	}

	text := strings.Join(strings.Fields(string(buf)), " ")
	if utf8.RuneCountInString(text) > snippetChars {
		text = string([]rune(text)[:snippetChars-3]) + "..."
	}
	return text
}

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`You are an expert file organization assistant using the KonMari Method principles.
{{with .Memory}}
**Previous Organization Context:**
- Last organized: {{.Timestamp}}
- Existing folder structure: {{join .FoldersCreated ", "}}
- Known patterns: {{$.Patterns}}

Keep the existing organization structure and extend it for new files.
{{end}}
**Current Situation:**
- Root directory has {{.TotalFiles}} files needing organization
- Found {{len .Preserve}} project folders to preserve
- Most common file types: {{join .TopTypes ", "}}

**Organization Principles:**
1. **Joy & Purpose**: Group files by their purpose and usage intent
2. **Categories over Location**: Create clear category folders (Work, Personal, Archive, etc.)
3. **Consolidation**: Merge similar or duplicate content
4. **Preservation**: Keep these project folders intact: {{if .Preserve}}{{join .Preserve ", "}}{{else}}none found{{end}}
5. **Clarity**: Use clear, descriptive folder names that "spark joy"

**Your Task:**
Create a reorganization plan that:
- Groups files into intuitive categories based on content and purpose
- Preserves existing project folders
- Creates a clean, navigable structure
- Gives a reason for each move

**Output Format (JSON):**
{
    "folders": ["Work/Documents", "Personal/Photos/2024", "Archive/Old_Projects"],
    "moves": [
        {
            "file": "filename.ext",
            "relative_path": "current/path/filename.ext",
            "new_path": "Work/Documents/filename.ext",
            "reason": "Work-related document about project planning"
        }
    ],
    "preserve": ["folders that must not be reorganized"]
}

**Files to Organize:**
{{range .Files}}- **{{.Name}}**
  Path: {{.Path}}
  Type: {{.Type}} | Size: {{.Size}}
  Modified: {{.Modified}}
  Content: {{.Snippet}}
{{end}}
**Important Notes:**
- Keep the parent folder of a Git repository (.git) intact
- Group related files even if they are in different locations
- Use dates in folder names when relevant (e.g. "Photos/2024-05-Hawaii")
- Put old or inactive items in an "Archive" folder
- Put items needing a user decision in a "Review" folder

Generate the complete reorganization plan:`))
