package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/railwayapp/envtrace/internal/environment/types"
	"github.com/railwayapp/envtrace/internal/schema"
)

// TextExporter renders a human-readable report grouped by variable name.
// Values of secret-looking variables are masked.
type TextExporter struct {
	name    *color.Color
	faint   *color.Color
	warn    *color.Color
	added   *color.Color
	removed *color.Color
}

func NewTextExporter(colorize bool) Exporter {
	e := &TextExporter{
		name:    color.New(color.FgCyan, color.Bold),
		faint:   color.New(color.Faint),
		warn:    color.New(color.FgYellow),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	if !colorize {
		for _, c := range []*color.Color{e.name, e.faint, e.warn, e.added, e.removed} {
			c.DisableColor()
		}
	}
	return e
}

func (e *TextExporter) Name() string {
	return "text"
}

func (e *TextExporter) ExportScan(result *schema.ScanResult) ([]byte, error) {
	var buf bytes.Buffer

	groups := make(map[string][]types.Occurrence)
	for _, occ := range result.EnvVars {
		groups[occ.Name] = append(groups[occ.Name], occ)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(&buf, "%d variables in %s\n", len(names), result.Path)
	for _, name := range names {
		fmt.Fprintf(&buf, "\n%s\n", e.name.Sprint(name))
		for _, occ := range groups[name] {
			fmt.Fprintf(&buf, "  %s:%d %s", relativeTo(result.Path, occ.File), occ.Line, e.faint.Sprintf("[%s/%s]", occ.Language, occ.Pattern))
			if occ.HasValue() {
				fmt.Fprintf(&buf, " = %s", displayValue(occ))
				fmt.Fprintf(&buf, " %s", e.faint.Sprintf("(%s)", sourceLabel(occ)))
			}
			buf.WriteString("\n")
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(&buf, "\n%s\n", e.warn.Sprintf("%d warnings", len(result.Errors)))
		for _, msg := range result.Errors {
			fmt.Fprintf(&buf, "  %s\n", e.warn.Sprint(msg))
		}
	}

	return buf.Bytes(), nil
}

func (e *TextExporter) ExportDiff(diff schema.Diff) ([]byte, error) {
	var buf bytes.Buffer

	for _, name := range diff.Added {
		fmt.Fprintf(&buf, "%s\n", e.added.Sprintf("+ %s", name))
	}
	for _, name := range diff.Removed {
		fmt.Fprintf(&buf, "%s\n", e.removed.Sprintf("- %s", name))
	}
	for _, name := range diff.Unchanged {
		fmt.Fprintf(&buf, "%s\n", e.faint.Sprintf("  %s", name))
	}
	fmt.Fprintf(&buf, "\n%d added, %d removed, %d unchanged\n", len(diff.Added), len(diff.Removed), len(diff.Unchanged))

	return buf.Bytes(), nil
}

func displayValue(occ types.Occurrence) string {
	value := occ.ValueString()
	if types.IsSensitive(occ.Name) {
		value = types.Mask(value)
	}
	return fmt.Sprintf("%q", value)
}

func sourceLabel(occ types.Occurrence) string {
	label := string(*occ.ValueSource)
	if occ.IsDefault {
		label += ", default"
	}
	return label
}

func relativeTo(root, file string) string {
	if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return file
}
