package environment

import (
	"context"
	"fmt"

	"github.com/railwayapp/envtrace/internal/environment/extractors"
	"github.com/railwayapp/envtrace/internal/environment/types"
)

// Extractor dispatches file content to the format extractors by name
type Extractor struct {
	extractors []extractors.ContentExtractor
}

func NewExtractor() *Extractor {
	return &Extractor{
		extractors: []extractors.ContentExtractor{
			extractors.NewPropertiesExtractor(),
			extractors.NewDockerfileExtractor(),
			extractors.NewDotEnvExtractor(),
			extractors.NewDockerComposeExtractor(),
			extractors.NewKubernetesExtractor(),
		},
	}
}

// Formats returns the registered extractors in dispatch order
func (e *Extractor) Formats() []extractors.ContentExtractor {
	return e.extractors
}

func (e *Extractor) Lookup(format string) (extractors.ContentExtractor, bool) {
	for _, extractor := range e.extractors {
		if extractor.Name() == format {
			return extractor, true
		}
	}
	return nil, false
}

// Extract runs the extractor registered for format over content
func (e *Extractor) Extract(ctx context.Context, format, filename string, content []byte) ([]types.Occurrence, error) {
	extractor, ok := e.Lookup(format)
	if !ok {
		return nil, fmt.Errorf("no extractor for format %q", format)
	}

	results, err := extractor.Extract(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", extractor.Name(), err)
	}
	return results, nil
}
