package discovery

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultExcludePatterns are build output, dependency and tooling directories
// skipped by every scan
var DefaultExcludePatterns = []string{
	"node_modules",
	"vendor",
	".git",
	"dist",
	"build",
	"target",
	"out",
	".next",
	".nuxt",
	".venv",
	"venv",
	"__pycache__",
	"coverage",
	"bin",
	"obj",
	".idea",
	".gradle",
}

// IsExcluded reports whether any segment of rel matches one of patterns.
// Patterns use glob syntax against single path segments, so "build" skips
// every build directory at any depth and "*.min.js" skips minified bundles.
func IsExcluded(rel string, patterns []string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if segment == "" || segment == "." {
			continue
		}
		for _, pattern := range patterns {
			if segment == pattern {
				return true
			}
			if ok, err := path.Match(pattern, segment); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// MergeExcludes appends extra patterns to base, dropping duplicates and blanks
func MergeExcludes(base []string, extra ...string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, pattern := range list {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" || seen[pattern] {
				continue
			}
			seen[pattern] = true
			merged = append(merged, pattern)
		}
	}
	return merged
}
