package extractors

import (
	"context"

	"github.com/railwayapp/envtrace/internal/environment/types"
)

// ContentExtractor scans the content of one kind of file and emits an
// occurrence for every variable sighting. Extractors hold no per-file state.
type ContentExtractor interface {
	// Name identifies the file kind, e.g. "dockerfile"
	Name() string

	// CanHandle returns true if this extractor should scan the given file
	CanHandle(filename string) bool

	// Extract returns occurrences found in content. filename is recorded as
	// the occurrence file and should be absolute.
	Extract(ctx context.Context, filename string, content []byte) ([]types.Occurrence, error)
}
