package extractors

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
	"github.com/railwayapp/envtrace/internal/environment/types"
)

// Line patterns for files buildkit rejects. The assignment form is tried
// first so "ENV A=x y" keeps "x y" as the value.
var (
	envAssignPattern = regexp.MustCompile(`(?i)^\s*ENV\s+([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)
	envSpacePattern  = regexp.MustCompile(`(?i)^\s*ENV\s+([A-Za-z_][A-Za-z0-9_]*)\s+(.*)$`)
	argPattern       = regexp.MustCompile(`(?i)^\s*ARG\s+([A-Za-z_][A-Za-z0-9_]*)(?:=(.*))?$`)

	dockerNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type DockerfileExtractor struct{}

func NewDockerfileExtractor() *DockerfileExtractor {
	return &DockerfileExtractor{}
}

func (d *DockerfileExtractor) Name() string {
	return "dockerfile"
}

func (d *DockerfileExtractor) CanHandle(filename string) bool {
	name := strings.ToLower(filepath.Base(filename))
	return name == "dockerfile" ||
		name == "containerfile" ||
		strings.HasPrefix(name, "dockerfile.") ||
		strings.HasSuffix(name, ".dockerfile")
}

func (d *DockerfileExtractor) Extract(ctx context.Context, filename string, content []byte) ([]types.Occurrence, error) {
	result, err := parser.Parse(bytes.NewReader(content))
	if err != nil || result.AST == nil {
		// Unparseable files still get the line-oriented scan
		return d.scanLines(filename, content), nil
	}

	var results []types.Occurrence

	// Walk the AST looking for ENV and ARG instructions
	for _, child := range result.AST.Children {
		switch strings.ToLower(child.Value) {
		case "env":
			results = append(results, parseEnvNode(filename, child)...)
		case "arg":
			results = append(results, parseArgNode(filename, child)...)
		}
	}

	return results, nil
}

// parseEnvNode reads the key/value pairs buildkit chained after an ENV
// instruction: key, value, key, value...
func parseEnvNode(filename string, node *parser.Node) []types.Occurrence {
	var results []types.Occurrence

	for key := node.Next; key != nil && key.Next != nil; key = key.Next.Next {
		if !dockerNamePattern.MatchString(key.Value) {
			continue
		}
		occ := dockerOccurrence(filename, node.StartLine, key.Value, "ENV")
		if value := instructionValue(key.Next.Value); value != "" {
			occ = occ.WithValue(value, types.SourceDockerfileEnv, false)
		}
		results = append(results, occ)
	}
	return results
}

// parseArgNode reads the NAME or NAME=default words of an ARG instruction
func parseArgNode(filename string, node *parser.Node) []types.Occurrence {
	var results []types.Occurrence

	for word := node.Next; word != nil; word = word.Next {
		name, raw, _ := strings.Cut(word.Value, "=")
		if !dockerNamePattern.MatchString(name) {
			continue
		}
		occ := dockerOccurrence(filename, node.StartLine, name, "ARG")
		// An ARG without a default is a required build argument
		if value := instructionValue(raw); value != "" {
			occ = occ.WithValue(value, types.SourceDockerfileArg, true)
		}
		results = append(results, occ)
	}
	return results
}

func dockerOccurrence(filename string, line int, name, pattern string) types.Occurrence {
	return types.Occurrence{
		Name:     name,
		File:     filename,
		Line:     line,
		Language: types.LanguageDockerfile,
		Pattern:  pattern,
	}
}

func (d *DockerfileExtractor) scanLines(filename string, content []byte) []types.Occurrence {
	var results []types.Occurrence
	for i, line := range splitLines(content) {
		if occ, ok := matchInstruction(filename, i+1, line); ok {
			results = append(results, occ)
		}
	}
	return results
}

func matchInstruction(filename string, line int, text string) (types.Occurrence, bool) {
	text = strings.TrimSpace(text)

	occ := types.Occurrence{
		File:     filename,
		Line:     line,
		Language: types.LanguageDockerfile,
	}

	if m := envAssignPattern.FindStringSubmatch(text); m != nil {
		occ.Name, occ.Pattern = m[1], "ENV"
		if value := instructionValue(m[2]); value != "" {
			occ = occ.WithValue(value, types.SourceDockerfileEnv, false)
		}
		return occ, true
	}

	if m := envSpacePattern.FindStringSubmatch(text); m != nil {
		occ.Name, occ.Pattern = m[1], "ENV"
		if value := instructionValue(m[2]); value != "" {
			occ = occ.WithValue(value, types.SourceDockerfileEnv, false)
		}
		return occ, true
	}

	if m := argPattern.FindStringSubmatch(text); m != nil {
		occ.Name, occ.Pattern = m[1], "ARG"
		// An ARG without a default is a required build argument
		if value := instructionValue(m[2]); value != "" {
			occ = occ.WithValue(value, types.SourceDockerfileArg, true)
		}
		return occ, true
	}

	return occ, false
}

func instructionValue(raw string) string {
	value := strings.TrimSpace(raw)
	value, _ = unquote(value)
	return strings.TrimSpace(value)
}
