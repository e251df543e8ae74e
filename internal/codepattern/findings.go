package codepattern

import (
	"path/filepath"
	"strings"

	"github.com/railwayapp/envtrace/internal/environment/types"
)

// Rule id prefixes and the language each one stands for
var languagePrefixes = []struct {
	prefix   string
	language string
}{
	{"go-", "go"},
	{"js-", "javascript"},
	{"python-", "python"},
	{"java-", "java"},
	{"ruby-", "ruby"},
	{"rust-", "rust"},
	{"csharp-", "csharp"},
	{"php-", "php"},
	{"kotlin-", "kotlin"},
	{"scala-", "scala"},
	{"properties-", "properties"},
}

// ParseRuleID recovers language and pattern from a check id. semgrep
// qualifies ids with the dotted rules file path, so the last language prefix
// at a segment boundary wins: "tmp.js-process-env" is javascript with
// pattern "process.env".
func ParseRuleID(checkID string) (language, pattern string) {
	if idx := lastPrefixAt(checkID, customRulePrefix); idx >= 0 {
		return types.LanguageCustom, joinSegments(checkID[idx+len(customRulePrefix):])
	}

	best := -1
	for _, lp := range languagePrefixes {
		idx := lastPrefixAt(checkID, lp.prefix)
		if idx > best {
			best = idx
			language = lp.language
			pattern = joinSegments(checkID[idx+len(lp.prefix):])
		}
	}
	if best >= 0 {
		return language, pattern
	}

	if dot := strings.LastIndex(checkID, "."); dot >= 0 {
		checkID = checkID[dot+1:]
	}
	return "unknown", joinSegments(checkID)
}

// lastPrefixAt returns the last index of prefix in s that starts s or
// follows a '.' or '-', or -1
func lastPrefixAt(s, prefix string) int {
	for end := len(s); end > 0; {
		idx := strings.LastIndex(s[:end], prefix)
		if idx < 0 {
			return -1
		}
		if idx == 0 || s[idx-1] == '.' || s[idx-1] == '-' {
			return idx
		}
		end = idx + len(prefix) - 1
	}
	return -1
}

func joinSegments(rest string) string {
	var parts []string
	for _, part := range strings.Split(rest, "-") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}

// SplitMessage separates the variable name from an optional default
// expression
func SplitMessage(message string) (name string, defaultExpr string, hasDefault bool) {
	name, defaultExpr, hasDefault = strings.Cut(message, MessageSeparator)
	name, _ = stripQuotes(strings.TrimSpace(name))
	if hasDefault {
		defaultExpr = CleanDefault(defaultExpr)
	}
	return name, defaultExpr, hasDefault
}

// CleanDefault normalizes a captured default expression: string coercion
// calls are dropped, a String(...) wrapper is unwrapped and one pair of
// matching quotes is stripped.
func CleanDefault(expr string) string {
	expr = strings.TrimSpace(expr)

	for _, suffix := range []string{".to_string()", ".to_owned()"} {
		expr = strings.TrimSuffix(expr, suffix)
	}

	if strings.HasPrefix(expr, "String(") && strings.HasSuffix(expr, ")") {
		expr = strings.TrimSpace(expr[len("String(") : len(expr)-1])
	}

	expr, _ = stripQuotes(expr)
	return expr
}

func stripQuotes(value string) (string, bool) {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return value[1 : len(value)-1], true
		}
	}
	return value, false
}

// toOccurrence converts one finding. Findings without a variable name
// report false.
func toOccurrence(root string, f Finding) (types.Occurrence, bool) {
	name, defaultExpr, hasDefault := SplitMessage(f.Extra.Message)
	if name == "" || f.Start.Line < 1 {
		return types.Occurrence{}, false
	}

	path := f.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	language, pattern := ParseRuleID(f.CheckID)
	occ := types.Occurrence{
		Name:     name,
		File:     path,
		Line:     f.Start.Line,
		Language: language,
		Pattern:  pattern,
	}
	if hasDefault {
		occ = occ.WithValue(defaultExpr, types.SourceCodeDefault, true)
	}
	return occ, true
}
