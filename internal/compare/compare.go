// Package compare diffs two scans by variable name.
package compare

import (
	"sort"

	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/railwayapp/envtrace/internal/schema"
)

// Compare reports names only in after as added, only in before as removed
// and in both as unchanged. File, line and value are ignored, so a variable
// that moved or changed its default is unchanged.
func Compare(before, after []types.Occurrence) schema.Diff {
	beforeNames := nameSet(before)
	afterNames := nameSet(after)

	diff := schema.NewDiff()
	for name := range afterNames {
		if beforeNames[name] {
			diff.Unchanged = append(diff.Unchanged, name)
		} else {
			diff.Added = append(diff.Added, name)
		}
	}
	for name := range beforeNames {
		if !afterNames[name] {
			diff.Removed = append(diff.Removed, name)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Unchanged)
	return diff
}

// Names returns the sorted distinct names of occs
func Names(occs []types.Occurrence) []string {
	set := nameSet(occs)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nameSet(occs []types.Occurrence) map[string]bool {
	set := make(map[string]bool, len(occs))
	for _, occ := range occs {
		set[occ.Name] = true
	}
	return set
}
