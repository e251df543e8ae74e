package schema

import "github.com/railwayapp/envtrace/internal/environment/types"

// ScanResult is the output of one scan
type ScanResult struct {
	Path    string             `json:"path"`
	EnvVars []types.Occurrence `json:"envVars"`
	Errors  []string           `json:"errors"`
}

// Diff compares the variable names of two scans
type Diff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`
}

// Constructors

// NewScanResult creates a result whose lists encode as [] rather than null
func NewScanResult(path string) *ScanResult {
	return &ScanResult{
		Path:    path,
		EnvVars: make([]types.Occurrence, 0),
		Errors:  make([]string, 0),
	}
}

func (r *ScanResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Names returns the distinct variable names of the result in first-seen order
func (r *ScanResult) Names() []string {
	seen := make(map[string]bool, len(r.EnvVars))
	names := make([]string, 0, len(r.EnvVars))
	for _, occ := range r.EnvVars {
		if !seen[occ.Name] {
			seen[occ.Name] = true
			names = append(names, occ.Name)
		}
	}
	return names
}

func NewDiff() Diff {
	return Diff{
		Added:     make([]string, 0),
		Removed:   make([]string, 0),
		Unchanged: make([]string, 0),
	}
}
