package processor

import (
	"context"

	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
)

// Processor defines the interface for passport data extraction.
// Processors are tried in registration order; the image should NOT be
// retained after processing.
type Processor interface {
	// CanProcess returns true if this processor handles the given source
	CanProcess(source domain.SourceType) bool

	// Process extracts passport data. A partial result is not an error.
	Process(ctx context.Context, in domain.Input) (*domain.Result, error)

	// Name returns the processor name for logging
	Name() string
}

// Registry holds all registered processors and dispatches to the right one
type Registry struct {
	processors []Processor
}

// NewRegistry creates a new processor registry
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

// FindProcessor returns the first processor that can handle the given source
func (r *Registry) FindProcessor(source domain.SourceType) Processor {
	for _, p := range r.processors {
		if p.CanProcess(source) {
			return p
		}
	}
	return nil
}

// FindProcessors returns all processors that can handle the given source,
// in registration order. If the first one fails or returns a partial
// result, the next one can try.
func (r *Registry) FindProcessors(source domain.SourceType) []Processor {
	var result []Processor
	for _, p := range r.processors {
		if p.CanProcess(source) {
			result = append(result, p)
		}
	}
	return result
}
