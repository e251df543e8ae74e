package codepattern

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules/builtin.yaml
var builtinRules []byte

const (
	customRulePrefix = "custom-"

	// MessageSeparator splits a finding message into name and default
	MessageSeparator = "|||"
)

// CustomPattern is a user-supplied rule: a semgrep pattern binding $VAR to
// the variable name
type CustomPattern struct {
	ID          string   `yaml:"id" toml:"id" mapstructure:"id"`
	Description string   `yaml:"description,omitempty" toml:"description" mapstructure:"description"`
	Pattern     string   `yaml:"pattern" toml:"pattern" mapstructure:"pattern"`
	Languages   []string `yaml:"languages" toml:"languages" mapstructure:"languages"`
}

func (p CustomPattern) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("custom pattern is missing an id")
	case strings.TrimSpace(p.Pattern) == "":
		return fmt.Errorf("custom pattern %s is missing a pattern", p.ID)
	case len(p.Languages) == 0:
		return fmt.Errorf("custom pattern %s is missing languages", p.ID)
	}
	return nil
}

// Rule is one semgrep rule. Keys envtrace does not inspect (pattern-either,
// metadata, ...) round-trip through Extra.
type Rule struct {
	ID        string                 `yaml:"id"`
	Message   string                 `yaml:"message"`
	Languages []string               `yaml:"languages"`
	Severity  string                 `yaml:"severity"`
	Pattern   string                 `yaml:"pattern,omitempty"`
	Extra     map[string]interface{} `yaml:",inline"`
}

// RuleSet is a semgrep rules document
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// BuiltinRules decodes the rule set shipped with envtrace
func BuiltinRules() (RuleSet, error) {
	var rules RuleSet
	if err := yaml.Unmarshal(builtinRules, &rules); err != nil {
		return RuleSet{}, fmt.Errorf("failed to decode builtin rules: %w", err)
	}
	return rules, nil
}

// CompileCustom turns a custom pattern into a rule whose message is the bare
// variable name
func CompileCustom(p CustomPattern) Rule {
	id := p.ID
	if !strings.HasPrefix(id, customRulePrefix) {
		id = customRulePrefix + id
	}
	return Rule{
		ID:        id,
		Message:   "$VAR",
		Languages: p.Languages,
		Severity:  "INFO",
		Pattern:   p.Pattern,
	}
}

// MergeRules appends the compiled custom patterns to base
func MergeRules(base RuleSet, custom []CustomPattern) RuleSet {
	merged := RuleSet{Rules: make([]Rule, 0, len(base.Rules)+len(custom))}
	merged.Rules = append(merged.Rules, base.Rules...)
	for _, p := range custom {
		merged.Rules = append(merged.Rules, CompileCustom(p))
	}
	return merged
}

func (r RuleSet) Encode() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return out, nil
}

// writeRulesFile writes rules to a new temp file. The returned cleanup
// removes it and is safe to call on every exit path.
func writeRulesFile(rules RuleSet) (string, func(), error) {
	content, err := rules.Encode()
	if err != nil {
		return "", func() {}, err
	}

	file, err := os.CreateTemp("", "envtrace-rules-*.yaml")
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create rules file: %w", err)
	}
	cleanup := func() { os.Remove(file.Name()) }

	if _, err := file.Write(content); err != nil {
		file.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write rules file: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write rules file: %w", err)
	}
	return file.Name(), cleanup, nil
}
