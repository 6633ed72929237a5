// Package organize prepares reorganization plans for a scanned folder: it builds
// the prompt an assistant answers with a plan and checks a returned plan against
// the folder before anything acts on it. Nothing here moves or writes user files.
package organize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	mfs "github.com/CageChen/fileorganizer/internal/fs"
)

// Move relocates one file inside the root.
type Move struct {
	File         string `json:"file"`
	RelativePath string `json:"relative_path,omitempty"`
	NewPath      string `json:"new_path"`
	Reason       string `json:"reason"`
}

// Plan is a proposed reorganization of a root directory. A nil Moves means the
// plan had no "moves" key at all.
type Plan struct {
	Folders  []string `json:"folders"`
	Moves    []Move   `json:"moves"`
	Preserve []string `json:"preserve,omitempty"`
}

// ValidationResult is the outcome of Check.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Issues          []string `json:"issues"`
	TotalMoves      int      `json:"total_moves"`
	FoldersToCreate []string `json:"folders_to_create"`
}

// Check validates p against root and summarizes it.
func Check(p *Plan, root string) ValidationResult {
	issues := Validate(p, root)
	folders := p.Folders
	if folders == nil {
		folders = []string{}
	}
	return ValidationResult{
		Valid:           len(issues) == 0,
		Issues:          issues,
		TotalMoves:      len(p.Moves),
		FoldersToCreate: folders,
	}
}

// Validate lists every problem that would stop p from being applied under root.
// An empty result means the plan is valid. Sources are looked up at
// relative_path when given, otherwise at file, both relative to root.
func Validate(p *Plan, root string) []string {
	issues := []string{}
	if p.Moves == nil {
		return append(issues, "missing 'moves' key in plan")
	}

	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	fsys := mfs.NewLocalFS(root)
	destinations := make(map[string]int, len(p.Moves))

	for i, m := range p.Moves {
		if m.File == "" {
			issues = append(issues, fmt.Sprintf("move %d: missing required field 'file'", i))
		}
		if m.NewPath == "" {
			issues = append(issues, fmt.Sprintf("move %d: missing required field 'new_path'", i))
		}
		if m.Reason == "" {
			issues = append(issues, fmt.Sprintf("move %d: missing required field 'reason'", i))
		}

		source := m.RelativePath
		if source == "" {
			source = m.File
		}
		if source != "" {
			source = filepath.FromSlash(source)
			if !filepath.IsLocal(source) {
				issues = append(issues, fmt.Sprintf("move %d: source leaves the root: %s", i, m.sourceName()))
			} else if _, err := fsys.Stat(source); err != nil {
				issues = append(issues, fmt.Sprintf("move %d: source file not found: %s", i, fsys.Abs(source)))
			}
		}

		if m.NewPath == "" {
			continue
		}
		dest := filepath.Clean(filepath.FromSlash(m.NewPath))
		if !filepath.IsLocal(dest) {
			issues = append(issues, fmt.Sprintf("move %d: destination leaves the root: %s", i, m.NewPath))
		}
		if first, ok := destinations[dest]; ok {
			issues = append(issues, fmt.Sprintf("move %d: duplicate destination: %s (also move %d)", i, m.NewPath, first))
			continue
		}
		destinations[dest] = i
	}
	return issues
}

func (m Move) sourceName() string {
	if m.RelativePath != "" {
		return m.RelativePath
	}
	return m.File
}

// SavePlan writes p as indented JSON to path, creating its directory.
func SavePlan(path string, p *Plan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadPlan reads a plan saved by SavePlan. A missing file yields an error
// matching os.ErrNotExist.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", path, err)
	}
	return &p, nil
}
