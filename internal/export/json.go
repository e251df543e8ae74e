package export

import (
	"encoding/json"

	"github.com/railwayapp/envtrace/internal/schema"
)

type JSONExporter struct{}

func (e *JSONExporter) Name() string {
	return "json"
}

func (e *JSONExporter) ExportScan(result *schema.ScanResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

func (e *JSONExporter) ExportDiff(diff schema.Diff) ([]byte, error) {
	return json.MarshalIndent(diff, "", "  ")
}

func NewJSONExporter() Exporter {
	return &JSONExporter{}
}
