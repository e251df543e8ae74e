package extractors

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/railwayapp/envtrace/internal/environment/types"
)

const patternSpringPlaceholder = "spring.placeholder"

// The default stops at the first closing brace, so ${A:${B:d}} yields the
// default "${B:d" for A and no separate occurrence for B.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]*)(?::([^}]*))?\}`)

// PropertiesExtractor finds ${NAME} and ${NAME:default} placeholders in
// Spring/Quarkus style property and YAML config files.
type PropertiesExtractor struct{}

func NewPropertiesExtractor() *PropertiesExtractor {
	return &PropertiesExtractor{}
}

func (p *PropertiesExtractor) Name() string {
	return "properties"
}

func (p *PropertiesExtractor) CanHandle(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	ext := filepath.Ext(base)

	if ext == ".properties" {
		return true
	}
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	return strings.HasPrefix(base, "application") || strings.HasPrefix(base, "bootstrap")
}

func (p *PropertiesExtractor) Extract(ctx context.Context, filename string, content []byte) ([]types.Occurrence, error) {
	isProperties := strings.EqualFold(filepath.Ext(filename), ".properties")

	var results []types.Occurrence
	for i, line := range splitLines(content) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || (isProperties && strings.HasPrefix(trimmed, "!")) {
			continue
		}

		for _, match := range placeholderPattern.FindAllStringSubmatchIndex(line, -1) {
			occ := types.Occurrence{
				Name:     line[match[2]:match[3]],
				File:     filename,
				Line:     i + 1,
				Language: types.LanguageProperties,
				Pattern:  patternSpringPlaceholder,
			}

			// Group 2 is unset (-1) when there is no ":default" segment
			if match[4] >= 0 {
				occ = occ.WithValue(placeholderDefault(line[match[4]:match[5]]), types.SourceProperties, true)
			}
			results = append(results, occ)
		}
	}

	return results, nil
}

func placeholderDefault(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if inner, quoted := unquote(trimmed); quoted {
		return inner
	}
	return strings.TrimSpace(stripInlineComment(trimmed))
}
