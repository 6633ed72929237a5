// Package report summarizes a scan and renders the summary as Markdown and HTML.
package report

import (
	"fmt"
	"sort"

	"github.com/CageChen/fileorganizer/internal/scan"
)

// TypeStat aggregates the files sharing one file_type.
type TypeStat struct {
	FileType string `json:"file_type"`
	Count    int    `json:"count"`
	Bytes    uint64 `json:"bytes"`
}

// Summary aggregates one scan result.
type Summary struct {
	Root       string     `json:"root"`
	TotalFiles int        `json:"total_files"`
	TotalBytes uint64     `json:"total_bytes"`
	Types      []TypeStat `json:"types"`
}

// Summarize counts files and bytes per file type. Types are ordered by count,
// then bytes, then name.
func Summarize(root string, files []scan.FileMeta) Summary {
	byType := make(map[string]*TypeStat)
	s := Summary{Root: root, TotalFiles: len(files), Types: []TypeStat{}}
	for _, f := range files {
		s.TotalBytes += f.Size
		ts, ok := byType[f.FileType]
		if !ok {
			ts = &TypeStat{FileType: f.FileType}
			byType[f.FileType] = ts
		}
		ts.Count++
		ts.Bytes += f.Size
	}
	for _, ts := range byType {
		s.Types = append(s.Types, *ts)
	}
	sort.Slice(s.Types, func(i, j int) bool {
		a, b := s.Types[i], s.Types[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return a.FileType < b.FileType
	})
	return s
}

// TopTypes returns up to n entries formatted as "ext(count)".
func (s Summary) TopTypes(n int) []string {
	if n > len(s.Types) {
		n = len(s.Types)
	}
	out := make([]string, 0, n)
	for _, ts := range s.Types[:n] {
		out = append(out, fmt.Sprintf("%s(%d)", ts.FileType, ts.Count))
	}
	return out
}

// HumanBytes formats n with binary units, one decimal place above bytes.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
