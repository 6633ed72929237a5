package organize

import (
	"sort"

	"github.com/CageChen/fileorganizer/internal/scan"
)

// SampleDiverse picks at most n files so that every file type is represented.
// It first takes the earliest file of each type in the order types appear,
// then adds the remaining files one per type per round, most common types first.
func SampleDiverse(files []scan.FileMeta, n int) []scan.FileMeta {
	if n <= 0 {
		return []scan.FileMeta{}
	}
	if len(files) <= n {
		return append([]scan.FileMeta{}, files...)
	}

	type group struct {
		files []scan.FileMeta
		next  int
	}
	var order []*group
	byType := make(map[string]*group)
	for _, f := range files {
		g, ok := byType[f.FileType]
		if !ok {
			g = &group{next: 1}
			byType[f.FileType] = g
			order = append(order, g)
		}
		g.files = append(g.files, f)
	}

	sampled := make([]scan.FileMeta, 0, n)
	for _, g := range order {
		if len(sampled) == n {
			return sampled
		}
		sampled = append(sampled, g.files[0])
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i].files) > len(order[j].files)
	})
	for len(sampled) < n {
		added := false
		for _, g := range order {
			if len(sampled) == n {
				break
			}
			if g.next < len(g.files) {
				sampled = append(sampled, g.files[g.next])
				g.next++
				added = true
			}
		}
		if !added {
			break
		}
	}
	return sampled
}
