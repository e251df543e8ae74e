package schema

import (
	"encoding/json"
	"testing"

	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanResultJSON(t *testing.T) {
	result := NewScanResult("/repo")

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/repo","envVars":[],"errors":[]}`, string(out))

	result.EnvVars = append(result.EnvVars, types.Occurrence{Name: "PORT", File: "/repo/.env", Line: 1, Language: "dotenv", Pattern: "assignment"}.
		WithValue("3000", types.SourceDotEnv, false))
	result.AddError("bad file")

	out, err = json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"path": "/repo",
		"envVars": [{
			"name": "PORT",
			"file": "/repo/.env",
			"line": 1,
			"language": "dotenv",
			"pattern": "assignment",
			"value": "3000",
			"valueSource": "dotenv",
			"isDefault": false
		}],
		"errors": ["bad file"]
	}`, string(out))
}

func TestScanResultNames(t *testing.T) {
	result := NewScanResult("/repo")
	result.EnvVars = []types.Occurrence{{Name: "B"}, {Name: "A"}, {Name: "B"}}
	assert.Equal(t, []string{"B", "A"}, result.Names())
}

func TestDiffJSON(t *testing.T) {
	out, err := json.Marshal(NewDiff())
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":[],"removed":[],"unchanged":[]}`, string(out))
}
