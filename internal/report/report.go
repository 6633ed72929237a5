package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CageChen/fileorganizer/internal/scan"
)

// Report is what the scan_report command returns.
type Report struct {
	Summary  Summary            `json:"summary"`
	Skipped  []scan.SkippedPath `json:"skipped"`
	Markdown string             `json:"markdown"`
	HTML     string             `json:"html"`
}

// Build summarizes files and renders the result.
func Build(r *Renderer, root string, files []scan.FileMeta, skipped []scan.SkippedPath) (*Report, error) {
	if skipped == nil {
		skipped = []scan.SkippedPath{}
	}
	sum := Summarize(root, files)
	md := Markdown(sum, skipped)
	out, err := r.Render(md)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &Report{
		Summary:  sum,
		Skipped:  skipped,
		Markdown: md,
		HTML:     out,
	}, nil
}

// Markdown lays out a summary as a Markdown document.
func Markdown(s Summary, skipped []scan.SkippedPath) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Scan of %s\n\n", escape(s.Root))
	fmt.Fprintf(&b, "- Files: %d\n", s.TotalFiles)
	fmt.Fprintf(&b, "- Total size: %s\n", HumanBytes(s.TotalBytes))
	if top := s.TopTypes(5); len(top) > 0 {
		fmt.Fprintf(&b, "- Most common types: %s\n", strings.Join(top, ", "))
	}

	if len(s.Types) > 0 {
		b.WriteString("\n## File types\n\n")
		b.WriteString("| Type | Files | Size |\n")
		b.WriteString("|------|------:|-----:|\n")
		for _, ts := range s.Types {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", escape(ts.FileType), ts.Count, HumanBytes(ts.Bytes))
		}
	}

	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\n## Skipped paths (%d)\n\n", len(skipped))
		data, err := json.MarshalIndent(skipped, "", "  ")
		if err == nil {
			b.WriteString("```json\n")
			b.Write(data)
			b.WriteString("\n```\n")
		}
	}

	return b.String()
}

// Line breaks become spaces so a name cannot end a table row or heading early.
var mdEscaper = strings.NewReplacer(
	"\r\n", " ", "\n", " ", "\r", " ",
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
