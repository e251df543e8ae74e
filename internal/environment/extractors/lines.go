package extractors

import (
	"strings"
)

// splitLines splits content on \n, dropping a trailing \r from each line
func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	// A trailing newline does not start another line
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// indentOf counts leading spaces and tabs
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// isSkippable reports blank lines and #-comment lines
func isSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// unquote strips one pair of matching surrounding quotes. The second result
// reports whether quotes were removed.
func unquote(value string) (string, bool) {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return value[1 : len(value)-1], true
		}
	}
	return value, false
}

// stripInlineComment removes a YAML-style " #" comment from an unquoted value
func stripInlineComment(value string) string {
	for i := 1; i < len(value); i++ {
		if value[i] == '#' && (value[i-1] == ' ' || value[i-1] == '\t') {
			return strings.TrimSpace(value[:i])
		}
	}
	return value
}

// scalarValue normalizes a YAML-ish scalar: quoted values keep their literal
// content, unquoted values lose inline comments
func scalarValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if inner, quoted := unquote(raw); quoted {
		return inner
	}
	inner, _ := unquote(stripInlineComment(raw))
	return inner
}
