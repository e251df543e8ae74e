package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/railwayapp/envtrace/internal/environment/types"
)

var dotenvLinePattern = regexp.MustCompile(`^\s*(export\s+)?([A-Za-z_][A-Za-z0-9_.]*)\s*=(.*)$`)

type DotEnvExtractor struct{}

func NewDotEnvExtractor() *DotEnvExtractor {
	return &DotEnvExtractor{}
}

func (d *DotEnvExtractor) Name() string {
	return "dotenv"
}

// CanHandle accepts dotfile style (.env, .env.local) and suffix style
// (container.env) names
func (d *DotEnvExtractor) CanHandle(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	return base == ".env" || strings.HasPrefix(base, ".env.") || strings.HasSuffix(base, ".env")
}

// Extract reports every assignment line. The file must also load with
// godotenv, whose values are not used: it expands escapes and variables and
// cuts values at any unquoted #.
func (d *DotEnvExtractor) Extract(ctx context.Context, filename string, content []byte) ([]types.Occurrence, error) {
	if _, err := godotenv.Unmarshal(string(content)); err != nil {
		return nil, fmt.Errorf("malformed env file %s: %w", filename, err)
	}

	var results []types.Occurrence

	for i, line := range splitLines(content) {
		if isSkippable(line) {
			continue
		}

		m := dotenvLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		occ := types.Occurrence{
			Name:     m[2],
			File:     filename,
			Line:     i + 1,
			Language: types.LanguageDotEnv,
			Pattern:  "assignment",
		}
		if m[1] != "" {
			occ.Pattern = "export"
		}

		if value, ok := parseDotEnvValue(m[3]); ok {
			occ = occ.WithValue(value, types.SourceDotEnv, false)
		}
		results = append(results, occ)
	}

	return results, nil
}

// parseDotEnvValue applies the quoting rules: quoted values are taken
// literally, unquoted values are trimmed and cut at an inline #. Empty
// values report false.
func parseDotEnvValue(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if inner, quoted := unquote(value); quoted {
		return inner, inner != ""
	}

	// A # at the start is part of the value (COLOR=#fff)
	if idx := strings.Index(value, "#"); idx > 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return value, value != ""
}
