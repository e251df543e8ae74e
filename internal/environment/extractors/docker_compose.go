package extractors

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composeTypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/railwayapp/envtrace/internal/environment/types"
)

const (
	patternComposeEnvironment = "environment"
	patternVariableReference  = "variable-reference"
)

var (
	composeListItemPattern = regexp.MustCompile(`^\s*-\s*(.+)$`)
	composeAssignPattern   = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)=(.*)$`)
	composeMappingPattern  = regexp.MustCompile(`^\s*(?:-\s*)?([A-Z][A-Z0-9_]*):(?:\s+(.*))?$`)
	composeRefPattern      = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)[^}]*\}|\$([A-Za-z_][A-Za-z0-9_]*)`)
)

type DockerComposeExtractor struct{}

func NewDockerComposeExtractor() *DockerComposeExtractor {
	return &DockerComposeExtractor{}
}

func (d *DockerComposeExtractor) Name() string {
	return "docker-compose"
}

func (d *DockerComposeExtractor) CanHandle(filename string) bool {
	name := strings.ToLower(filepath.Base(filename))
	if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
		return false
	}
	return strings.HasPrefix(name, "docker-compose") || strings.HasPrefix(name, "compose")
}

func (d *DockerComposeExtractor) Extract(ctx context.Context, filename string, content []byte) ([]types.Occurrence, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	if err := validateCompose(ctx, filename, content); err != nil {
		return nil, fmt.Errorf("invalid compose file %s: %w", filename, err)
	}

	var results []types.Occurrence
	for i, line := range splitLines(content) {
		if isSkippable(line) {
			continue
		}

		// A definition consumes the whole line, so NAME=${NAME} is counted once
		if occ, ok := composeDefinition(filename, i+1, line); ok {
			results = append(results, occ)
			continue
		}

		results = append(results, composeReferences(filename, i+1, line)...)
	}

	return results, nil
}

// validateCompose loads the file as a compose model. Other files it points at
// (include, extends) are not followed and variables are left uninterpolated.
func validateCompose(ctx context.Context, filename string, content []byte) error {
	details := composeTypes.ConfigDetails{
		WorkingDir: filepath.Dir(filename),
		ConfigFiles: []composeTypes.ConfigFile{
			{
				Filename: filename,
				Content:  content,
			},
		},
	}

	_, err := loader.LoadModelWithContext(ctx, details, loader.WithSkipValidation, func(options *loader.Options) {
		options.SetProjectName("envtrace", true)
		options.SkipInterpolation = true
		options.SkipInclude = true
		options.SkipExtends = true
		options.SkipNormalization = true
	})
	return err
}

func composeDefinition(filename string, line int, text string) (types.Occurrence, bool) {
	occ := types.Occurrence{
		File:     filename,
		Line:     line,
		Language: types.LanguageDockerCompose,
		Pattern:  patternComposeEnvironment,
	}

	if m := composeListItemPattern.FindStringSubmatch(text); m != nil {
		item, _ := unquote(strings.TrimSpace(m[1]))
		if a := composeAssignPattern.FindStringSubmatch(item); a != nil {
			occ.Name = a[1]
			if value := scalarValue(a[2]); value != "" {
				occ = occ.WithValue(value, types.SourceDockerCompose, false)
			}
			return occ, true
		}
		// A bare NAME passes the variable through from the host
		if item = stripInlineComment(item); types.IsUppercaseName(item) {
			occ.Name = item
			return occ, true
		}
	}

	if m := composeMappingPattern.FindStringSubmatch(text); m != nil {
		occ.Name = m[1]
		if value := scalarValue(m[2]); value != "" {
			occ = occ.WithValue(value, types.SourceDockerCompose, false)
		}
		return occ, true
	}

	return occ, false
}

func composeReferences(filename string, line int, text string) []types.Occurrence {
	var results []types.Occurrence
	for _, m := range composeRefPattern.FindAllStringSubmatchIndex(text, -1) {
		// $$ escapes a literal dollar sign
		if m[0] > 0 && text[m[0]-1] == '$' {
			continue
		}

		var name string
		if m[2] >= 0 {
			name = text[m[2]:m[3]]
		} else {
			name = text[m[4]:m[5]]
		}
		if !types.IsUppercaseName(name) {
			continue
		}

		results = append(results, types.Occurrence{
			Name:     name,
			File:     filename,
			Line:     line,
			Language: types.LanguageDockerCompose,
			Pattern:  patternVariableReference,
		})
	}
	return results
}
