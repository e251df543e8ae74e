package export

import (
	"fmt"

	"github.com/railwayapp/envtrace/internal/schema"
)

// Exporter defines the interface for rendering scan and diff results
type Exporter interface {
	// ExportScan renders the result of one scan
	ExportScan(result *schema.ScanResult) ([]byte, error)

	// ExportDiff renders a comparison of two scans
	ExportDiff(diff schema.Diff) ([]byte, error)

	// Name returns the exporter name (e.g., "json", "text")
	Name() string
}

// New returns the exporter registered under format
func New(format string, colorize bool) (Exporter, error) {
	switch format {
	case "", "json":
		return NewJSONExporter(), nil
	case "text":
		return NewTextExporter(colorize), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want json or text)", format)
	}
}
