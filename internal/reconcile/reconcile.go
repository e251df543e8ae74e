// Package reconcile merges occurrences reported by independent scanners
// into one canonical set.
package reconcile

import (
	"sort"

	"github.com/railwayapp/envtrace/internal/environment/types"
)

// Merge deduplicates occurrences by (name, file, line). Of two occurrences
// sharing a key, one carrying a value replaces one without; otherwise the
// first encountered is kept. Output preserves the order in which keys were
// first seen.
func Merge(lists ...[]types.Occurrence) []types.Occurrence {
	index := make(map[types.Key]int)
	merged := make([]types.Occurrence, 0)

	for _, list := range lists {
		for _, occ := range list {
			key := occ.Key()
			i, exists := index[key]
			if !exists {
				index[key] = len(merged)
				merged = append(merged, occ)
				continue
			}
			if !merged[i].HasValue() && occ.HasValue() {
				merged[i] = occ
			}
		}
	}

	return merged
}

// Sort orders occurrences by file, line and name
func Sort(occs []types.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})
}

// FilterUppercase keeps occurrences whose names are upper snake-case
func FilterUppercase(occs []types.Occurrence) []types.Occurrence {
	kept := make([]types.Occurrence, 0, len(occs))
	for _, occ := range occs {
		if types.IsUppercaseName(occ.Name) {
			kept = append(kept, occ)
		}
	}
	return kept
}
