package extractors

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/railwayapp/envtrace/internal/environment/types"
	"gopkg.in/yaml.v3"
)

var workloadKinds = map[string]bool{
	"Deployment":  true,
	"StatefulSet": true,
	"DaemonSet":   true,
	"Job":         true,
	"CronJob":     true,
	"Pod":         true,
	"ReplicaSet":  true,
}

// Directory names that usually hold manifests
var manifestDirHints = map[string]bool{
	"k8s": true, ".k8s": true, "kubernetes": true, "kube": true,
	"manifests": true, "manifest": true, "deploy": true, "deployment": true,
	"deployments": true, "kustomize": true, "overlays": true, "base": true,
	"helm": true, "charts": true, "templates": true, "openshift": true,
}

// File name fragments that usually mark a manifest
var manifestNameHints = []string{
	"deployment", "statefulset", "daemonset", "cronjob", "job", "pod",
	"replicaset", "configmap", "secret", "manifest", "k8s", "kube",
}

var (
	dataEntryPattern   = regexp.MustCompile(`^(\s*)("[^"]+"|'[^']+'|[^\s#:'"][^:]*?):(?:\s+(.*))?$`)
	blockScalarPattern = regexp.MustCompile(`^([|>])[-+]?$`)
)

// KubernetesExtractor reads env: blocks of workloads and data:/stringData:
// blocks of ConfigMaps and Secrets from (multi-document) manifests.
type KubernetesExtractor struct{}

func NewKubernetesExtractor() *KubernetesExtractor {
	return &KubernetesExtractor{}
}

func (k *KubernetesExtractor) Name() string {
	return "kubernetes"
}

func (k *KubernetesExtractor) CanHandle(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	ext := filepath.Ext(base)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}

	for _, hint := range manifestNameHints {
		if strings.Contains(base, hint) {
			return true
		}
	}

	for _, segment := range strings.Split(filepath.ToSlash(filepath.Dir(filename)), "/") {
		if manifestDirHints[strings.ToLower(segment)] {
			return true
		}
	}
	return false
}

// MatchContent reports whether content holds a manifest of a kind that
// carries variables, for YAML files no path hint matched
func (k *KubernetesExtractor) MatchContent(content []byte) bool {
	for _, doc := range splitDocuments(splitLines(content)) {
		if kind, ok := doc.manifestKind(); ok && scannedKind(kind) {
			return true
		}
	}
	return false
}

func scannedKind(kind string) bool {
	return workloadKinds[kind] || kind == "ConfigMap" || kind == "Secret"
}

func (k *KubernetesExtractor) Extract(ctx context.Context, filename string, content []byte) ([]types.Occurrence, error) {
	var results []types.Occurrence

	for _, doc := range splitDocuments(splitLines(content)) {
		kind, ok := doc.manifestKind()
		if !ok {
			continue
		}

		// Malformed documents are skipped, the rest of the file still counts
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(strings.Join(doc.lines, "\n")), &node); err != nil {
			continue
		}

		scanner := newManifestScanner(filename, doc, kind)
		results = append(results, scanner.scan()...)
	}

	return results, nil
}

// document is one YAML document of a file together with the file line of
// its first line, so reported lines stay file-global
type document struct {
	lines     []string
	startLine int
}

func splitDocuments(lines []string) []document {
	var docs []document
	current := document{startLine: 1}

	for i, line := range lines {
		if strings.TrimRight(line, " \t") == "---" {
			docs = append(docs, current)
			current = document{startLine: i + 2}
			continue
		}
		current.lines = append(current.lines, line)
	}
	return append(docs, current)
}

// manifestKind returns the kind of a document carrying both top-level
// apiVersion: and kind: lines
func (d document) manifestKind() (string, bool) {
	var hasAPIVersion bool
	var kind string

	for _, line := range d.lines {
		switch {
		case strings.HasPrefix(line, "apiVersion:"):
			hasAPIVersion = true
		case strings.HasPrefix(line, "kind:"):
			kind = scalarValue(strings.TrimPrefix(line, "kind:"))
		}
	}
	return kind, hasAPIVersion && kind != ""
}

type sectionState int

const (
	stateOutside sectionState = iota
	stateWorkloadEnv
	stateConfigData
	stateSecretData
	stateSecretStringData
)

// manifestScanner walks one document. state and indent say which section
// the cursor is in and the indent of its header line.
type manifestScanner struct {
	filename string
	doc      document
	kind     string

	state  sectionState
	indent int

	results []types.Occurrence
}

func newManifestScanner(filename string, doc document, kind string) *manifestScanner {
	return &manifestScanner{filename: filename, doc: doc, kind: kind}
}

func (s *manifestScanner) scan() []types.Occurrence {
	lines := s.doc.lines

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isSkippable(line) {
			continue
		}

		indent := indentOf(line)
		trimmed := strings.TrimSpace(line)

		if s.state != stateOutside && s.leavesSection(indent, trimmed) {
			s.state = stateOutside
		}

		switch s.state {
		case stateOutside:
			s.enter(indent, trimmed)

		case stateWorkloadEnv:
			if strings.HasPrefix(trimmed, "- name:") {
				s.envEntry(i, trimmed)
			}

		case stateConfigData, stateSecretData, stateSecretStringData:
			i = s.dataEntry(i)
		}
	}

	return s.results
}

// List items may sit at the header's own indent ("env:\n- name: X"), but a
// shallower item belongs to an enclosing list such as the next container
func (s *manifestScanner) leavesSection(indent int, trimmed string) bool {
	if indent < s.indent {
		return true
	}
	return indent == s.indent && !strings.HasPrefix(trimmed, "-")
}

// enter switches into a section when line is a section header for the
// document's kind. A header may open a list item ("- env:"), in which case
// the section indent is that of the key.
func (s *manifestScanner) enter(indent int, trimmed string) {
	header := strings.TrimSpace(stripInlineComment(trimmed))
	if strings.HasPrefix(header, "- ") {
		key := strings.TrimLeft(header[1:], " \t")
		indent += len(header) - len(key)
		header = key
	}

	next := stateOutside
	switch {
	case workloadKinds[s.kind] && header == "env:":
		next = stateWorkloadEnv
	case s.kind == "ConfigMap" && header == "data:":
		next = stateConfigData
	case s.kind == "Secret" && header == "data:":
		next = stateSecretData
	case s.kind == "Secret" && header == "stringData:":
		next = stateSecretStringData
	}

	if next != stateOutside {
		s.state = next
		s.indent = indent
	}
}

// envEntry records "- name: NAME" and a "value:" on the very next line
func (s *manifestScanner) envEntry(i int, trimmed string) {
	name := scalarValue(strings.TrimPrefix(trimmed, "- name:"))
	if name == "" {
		return
	}

	occ := types.Occurrence{
		Name:     name,
		File:     s.filename,
		Line:     s.doc.startLine + i,
		Language: types.LanguageKubernetes,
		Pattern:  strings.ToLower(s.kind),
	}

	if i+1 < len(s.doc.lines) {
		next := strings.TrimSpace(s.doc.lines[i+1])
		if strings.HasPrefix(next, "value:") {
			if value := scalarValue(strings.TrimPrefix(next, "value:")); value != "" {
				occ = occ.WithValue(value, types.SourceK8sDeployment, false)
			}
		}
	}

	s.results = append(s.results, occ)
}

// dataEntry records one KEY: value entry of a data or stringData block and
// returns the index of the last line it consumed
func (s *manifestScanner) dataEntry(i int) int {
	line := s.doc.lines[i]
	m := dataEntryPattern.FindStringSubmatch(line)
	if m == nil {
		return i
	}

	key, _ := unquote(m[2])
	occ := types.Occurrence{
		Name:     key,
		File:     s.filename,
		Line:     s.doc.startLine + i,
		Language: types.LanguageKubernetes,
	}

	value := scalarValue(m[3])
	last := i
	header := strings.TrimSpace(stripInlineComment(strings.TrimSpace(m[3])))
	if b := blockScalarPattern.FindStringSubmatch(header); b != nil {
		value, last = s.blockScalar(i, len(m[1]), b[1] == ">")
	}

	switch s.state {
	case stateConfigData:
		occ.Pattern = "configmap"
		if value != "" {
			occ = occ.WithValue(value, types.SourceK8sConfigMap, false)
		}
	case stateSecretData:
		occ.Pattern = "secret.data"
		if value != "" {
			occ = occ.WithValue(decodeSecretValue(value), types.SourceK8sSecret, false)
		}
	case stateSecretStringData:
		occ.Pattern = "secret.stringData"
		if value != "" {
			occ = occ.WithValue(value, types.SourceK8sSecret, false)
		}
	}

	s.results = append(s.results, occ)
	return last
}

// blockScalar collects the continuation lines of a |/> value starting after
// line i. Lines belong to the value while indented at least two columns past
// the key; blank lines are skipped.
func (s *manifestScanner) blockScalar(i, keyIndent int, folded bool) (string, int) {
	lines := s.doc.lines
	minIndent := keyIndent + 2
	blockIndent := -1
	last := i

	var parts []string
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}

		indent := indentOf(lines[j])
		if indent < minIndent {
			break
		}
		if blockIndent < 0 {
			blockIndent = indent
		}

		text := lines[j]
		if indent >= blockIndent {
			text = text[blockIndent:]
		} else {
			text = strings.TrimLeft(text, " \t")
		}
		parts = append(parts, strings.TrimRight(text, " \t"))
		last = j
	}

	sep := "\n"
	if folded {
		sep = " "
	}
	return strings.Join(parts, sep), last
}

// decodeSecretValue base64-decodes a Secret data value, keeping the raw
// value when it is not valid base64
func decodeSecretValue(value string) string {
	compact := strings.Join(strings.Fields(value), "")
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return value
	}
	return string(decoded)
}
