package compare

import (
	"testing"

	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/railwayapp/envtrace/internal/schema"
	"github.com/stretchr/testify/assert"
)

func named(names ...string) []types.Occurrence {
	occs := make([]types.Occurrence, 0, len(names))
	for i, name := range names {
		occs = append(occs, types.Occurrence{Name: name, File: "/repo/app.js", Line: i + 1})
	}
	return occs
}

func TestCompare(t *testing.T) {
	before := named("PORT", "DATABASE_URL", "LEGACY_FLAG")
	after := named("PORT", "REDIS_URL", "DATABASE_URL", "API_KEY")

	assert.Equal(t, schema.Diff{
		Added:     []string{"API_KEY", "REDIS_URL"},
		Removed:   []string{"LEGACY_FLAG"},
		Unchanged: []string{"DATABASE_URL", "PORT"},
	}, Compare(before, after))
}

func TestCompareSame(t *testing.T) {
	a := named("B", "A", "C", "A")

	diff := Compare(a, a)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Equal(t, Names(a), diff.Unchanged)
	assert.Equal(t, []string{"A", "B", "C"}, diff.Unchanged)
}

func TestCompareIgnoresPositionAndValue(t *testing.T) {
	before := []types.Occurrence{
		types.Occurrence{Name: "PORT", File: "/old/.env", Line: 1}.WithValue("3000", types.SourceDotEnv, false),
	}
	after := []types.Occurrence{
		types.Occurrence{Name: "PORT", File: "/new/config/.env", Line: 9}.WithValue("8080", types.SourceDotEnv, false),
	}

	diff := Compare(before, after)
	assert.Equal(t, []string{"PORT"}, diff.Unchanged)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
}

func TestCompareEmpty(t *testing.T) {
	diff := Compare(nil, nil)
	assert.NotNil(t, diff.Added)
	assert.NotNil(t, diff.Removed)
	assert.NotNil(t, diff.Unchanged)
}
