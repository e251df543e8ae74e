package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/railwayapp/envtrace/internal/codepattern"
	"gopkg.in/yaml.v3"
)

// patternsFile is the custom rules document:
//
//	patterns:
//	  - id: config-get
//	    pattern: config.get("$VAR")
//	    languages: [python]
type patternsFile struct {
	Patterns []codepattern.CustomPattern `yaml:"patterns" toml:"patterns"`
}

// LoadCustomPatterns reads a custom rules file. Files ending in .toml are
// decoded as TOML, anything else as YAML.
func LoadCustomPatterns(path string) ([]codepattern.CustomPattern, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom rules %s: %w", path, err)
	}

	var doc patternsFile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(content, &doc)
	} else {
		err = yaml.Unmarshal(content, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse custom rules %s: %w", path, err)
	}

	for _, p := range doc.Patterns {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return doc.Patterns, nil
}
