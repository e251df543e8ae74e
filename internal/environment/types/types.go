package types

import "regexp"

// ValueSource tags where a resolved value came from
type ValueSource string

const (
	SourceCodeDefault   ValueSource = "code-default"
	SourceDotEnv        ValueSource = "dotenv"
	SourceDockerfileEnv ValueSource = "dockerfile-env"
	SourceDockerfileArg ValueSource = "dockerfile-arg"
	SourceK8sDeployment ValueSource = "k8s-deployment"
	SourceK8sConfigMap  ValueSource = "k8s-configmap"
	SourceK8sSecret     ValueSource = "k8s-secret"
	SourceDockerCompose ValueSource = "docker-compose"
	SourceProperties    ValueSource = "properties"
)

// Language tags for occurrences produced by the format scanners. Occurrences
// produced by the code-pattern adapter carry the source language instead.
const (
	LanguageProperties    = "properties"
	LanguageDockerfile    = "dockerfile"
	LanguageDotEnv        = "dotenv"
	LanguageDockerCompose = "docker-compose"
	LanguageKubernetes    = "kubernetes"
	LanguageCustom        = "custom"
)

// Occurrence is one observed mention of a variable at a file position.
// Value and ValueSource are set together; IsDefault implies a value.
type Occurrence struct {
	Name        string       `json:"name"`
	File        string       `json:"file"`
	Line        int          `json:"line"`
	Language    string       `json:"language"`
	Pattern     string       `json:"pattern"`
	Value       *string      `json:"value,omitempty"`
	ValueSource *ValueSource `json:"valueSource,omitempty"`
	IsDefault   bool         `json:"isDefault"`
}

// Key identifies the textual position an occurrence refers to
type Key struct {
	Name string
	File string
	Line int
}

func (o Occurrence) Key() Key {
	return Key{Name: o.Name, File: o.File, Line: o.Line}
}

func (o Occurrence) HasValue() bool {
	return o.Value != nil
}

// ValueString returns the resolved value or "" when none was found
func (o Occurrence) ValueString() string {
	if o.Value == nil {
		return ""
	}
	return *o.Value
}

// WithValue returns a copy carrying value and its provenance
func (o Occurrence) WithValue(value string, source ValueSource, isDefault bool) Occurrence {
	v := value
	s := source
	o.Value = &v
	o.ValueSource = &s
	o.IsDefault = isDefault
	return o
}

// Valid reports whether the occurrence satisfies the record invariants
func (o Occurrence) Valid() bool {
	if o.Name == "" || o.Line < 1 {
		return false
	}
	if (o.Value == nil) != (o.ValueSource == nil) {
		return false
	}
	return !o.IsDefault || o.Value != nil
}

var uppercaseName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// IsUppercaseName reports whether name follows the upper snake-case convention
func IsUppercaseName(name string) bool {
	return uppercaseName.MatchString(name)
}
